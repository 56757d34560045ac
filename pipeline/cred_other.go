//go:build !unix

package pipeline

import (
	"runtime"
	"syscall"

	"github.com/GriffinCanCode/PipeKit/errdefs"
	"github.com/GriffinCanCode/PipeKit/internal/ident"
)

// credential fails fast: running a child under the wrong identity silently
// is never acceptable.
func credential(owner *ident.Owner) (*syscall.SysProcAttr, error) {
	if owner == nil {
		return nil, nil
	}
	return nil, errdefs.Capability("user/group switching not supported on %s", runtime.GOOS)
}
