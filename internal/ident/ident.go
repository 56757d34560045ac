// Package ident resolves user and group identifiers for process identity
// switching and file ownership handoff.
package ident

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// Owner is a resolved numeric uid/gid pair.
type Owner struct {
	UID uint32
	GID uint32
}

// Lookup resolves a user and group reference to numeric ids. Each reference
// may be a name, a numeric string, or empty. An empty user or group falls
// back to the current process identity; if both are empty Lookup returns nil,
// meaning no identity override was requested.
func Lookup(userRef, groupRef string) (*Owner, error) {
	if userRef == "" && groupRef == "" {
		return nil, nil
	}

	owner := &Owner{
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
	}

	if userRef != "" {
		uid, err := lookupUID(userRef)
		if err != nil {
			return nil, err
		}
		owner.UID = uid
	}

	if groupRef != "" {
		gid, err := lookupGID(groupRef)
		if err != nil {
			return nil, err
		}
		owner.GID = gid
	}

	return owner, nil
}

func lookupUID(ref string) (uint32, error) {
	if n, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return uint32(n), nil
	}

	u, err := user.Lookup(ref)
	if err != nil {
		return 0, fmt.Errorf("lookup user %q: %w", ref, err)
	}
	n, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("non-numeric uid %q for user %q", u.Uid, ref)
	}
	return uint32(n), nil
}

func lookupGID(ref string) (uint32, error) {
	if n, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return uint32(n), nil
	}

	g, err := user.LookupGroup(ref)
	if err != nil {
		return 0, fmt.Errorf("lookup group %q: %w", ref, err)
	}
	n, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("non-numeric gid %q for group %q", g.Gid, ref)
	}
	return uint32(n), nil
}
