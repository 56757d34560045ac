package pipeline

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/PipeKit/internal/quote"
)

// Failure records one leaf that exited nonzero or died on a signal.
type Failure struct {
	// Args is the leaf's argv.
	Args []string
	// Status is the signed exit status.
	Status int
}

// ExitError aggregates every failing leaf of a pipeline. No failure hides
// behind an earlier one: the message lists them all, one line per leaf, as
// [<code>] <shell-quoted argv>.
type ExitError struct {
	Failures []Failure
}

func (e *ExitError) Error() string {
	var b strings.Builder
	b.WriteString("one or more pipeline commands exited with non-zero status:")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  [%3d] %s", f.Status, quote.Join(f.Args))
	}
	return b.String()
}

// exitError builds the aggregate from the flattened leaves and their
// statuses, keeping flatten order.
func exitError(procs []*Process, statuses []int) error {
	var failures []Failure
	for i, status := range statuses {
		if status == 0 {
			continue
		}
		failures = append(failures, Failure{Args: procs[i].Args(), Status: status})
	}
	if len(failures) == 0 {
		return nil
	}
	return &ExitError{Failures: failures}
}
