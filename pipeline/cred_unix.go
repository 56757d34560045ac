//go:build unix

package pipeline

import (
	"syscall"

	"github.com/GriffinCanCode/PipeKit/internal/ident"
)

// credential maps an identity override onto spawn attributes. Nil owner
// means no override.
func credential(owner *ident.Owner) (*syscall.SysProcAttr, error) {
	if owner == nil {
		return nil, nil
	}
	return &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid: owner.UID,
			Gid: owner.GID,
		},
	}, nil
}
