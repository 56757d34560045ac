package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Failures: []Failure{
		{Args: []string{"false"}, Status: 1},
		{Args: []string{"sh", "-c", "kill -TERM $$"}, Status: -15},
	}}

	want := "one or more pipeline commands exited with non-zero status:" +
		"\n  [  1] false" +
		"\n  [-15] sh -c 'kill -TERM $$'"
	assert.Equal(t, want, err.Error())
}

func TestExitErrorNilOnSuccess(t *testing.T) {
	procs := []*Process{{args: []string{"true"}}, {args: []string{"true"}}}
	assert.NoError(t, exitError(procs, []int{0, 0}))
}

func TestExitErrorKeepsFlattenOrder(t *testing.T) {
	procs := []*Process{
		{args: []string{"first"}},
		{args: []string{"second"}},
		{args: []string{"third"}},
	}

	err := exitError(procs, []int{2, 0, 9})
	exitErr, ok := err.(*ExitError)
	if assert.True(t, ok) {
		assert.Equal(t, []string{"first"}, exitErr.Failures[0].Args)
		assert.Equal(t, []string{"third"}, exitErr.Failures[1].Args)
	}
}
