// Package shell provides a stateful convenience layer over pipeline: a Shell
// carries a working directory, an environment map, optional user/group, and
// default stdio, and stamps them onto every job it creates.
//
// A Shell is an explicit value. There is no process-global or goroutine-local
// shell; code that wants one constructs it with New and passes it around.
//
//	sh, err := shell.New()
//	if err != nil {
//		...
//	}
//	ls, err := sh.Command("ls")
//	if err != nil {
//		...
//	}
//	out, err := sh.Evaluate(ctx, ls.With("-l"))
//
// Despite the name, no package here interprets shell syntax. Command lines
// are argv slices; quoting, globbing and expansion never happen.
package shell
