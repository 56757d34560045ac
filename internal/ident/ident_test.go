package ident

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEmpty(t *testing.T) {
	owner, err := Lookup("", "")
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestLookupNumeric(t *testing.T) {
	owner, err := Lookup("1234", "5678")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, uint32(1234), owner.UID)
	assert.Equal(t, uint32(5678), owner.GID)
}

func TestLookupUserOnly(t *testing.T) {
	owner, err := Lookup("1234", "")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, uint32(1234), owner.UID)
	assert.Equal(t, uint32(os.Getgid()), owner.GID)
}

func TestLookupCurrentUserByName(t *testing.T) {
	name := os.Getenv("USER")
	if name == "" {
		t.Skip("USER not set")
	}

	owner, err := Lookup(name, "")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, strconv.Itoa(os.Getuid()), strconv.FormatUint(uint64(owner.UID), 10))
}

func TestLookupUnknownUser(t *testing.T) {
	_, err := Lookup("no-such-user-pipekit", "")
	assert.Error(t, err)
}
