// Package errdefs defines the error classes shared across PipeKit packages.
//
// Errors are sentinel-based: wrap with the helpers, test with errors.Is.
//
//   - ErrConfiguration: malformed templates (bad file mode, empty argv,
//     missing stream direction, unresolvable executable). Raised while a
//     pipeline is being described or built, never retried.
//   - ErrCapability: the host platform cannot satisfy a request, such as
//     switching process identity.
//   - ErrProgramming: out-of-order lifecycle use (wait before run, running a
//     job twice). Always a caller bug, never suppressed.
//
// Process failures are not represented here: a nonzero or signaled exit is
// data, reported through status vectors and pipeline.ExitError.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks malformed pipeline or stream templates.
	ErrConfiguration = errors.New("configuration error")

	// ErrCapability marks requests the host platform cannot satisfy.
	ErrCapability = errors.New("capability unsupported")

	// ErrProgramming marks out-of-order lifecycle use.
	ErrProgramming = errors.New("programming error")
)

// Configuration returns a formatted error wrapping ErrConfiguration.
func Configuration(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConfiguration)
}

// Capability returns a formatted error wrapping ErrCapability.
func Capability(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrCapability)
}

// Programming returns a formatted error wrapping ErrProgramming.
func Programming(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrProgramming)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsCapability reports whether err is a capability error.
func IsCapability(err error) bool { return errors.Is(err, ErrCapability) }

// IsProgramming reports whether err is a programming error.
func IsProgramming(err error) bool { return errors.Is(err, ErrProgramming) }
