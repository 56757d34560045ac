// Command pipekit runs a process pipeline described on the command line and
// exits with the last stage's status. Stages are separated by a literal "|"
// argument; no shell is involved.
//
//	pipekit ls -l "|" grep .go "|" wc -l
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/PipeKit/pipeline"
	"github.com/GriffinCanCode/PipeKit/shell"
	"github.com/GriffinCanCode/PipeKit/stream"
)

func main() {
	dir := flag.String("dir", "", "Working directory for every stage")
	user := flag.String("user", "", "Run stages as this user (name or uid)")
	group := flag.String("group", "", "Run stages as this group (name or gid)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: pipekit [flags] cmd [args...] ['|' cmd [args...]]...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts := []shell.Option{shell.WithUser(*user, *group)}
	if *dir != "" {
		opts = append(opts, shell.WithDir(*dir))
	}
	sh, err := shell.New(opts...)
	if err != nil {
		log.Fatalf("pipekit: %v", err)
	}

	factory, err := buildChain(sh, flag.Args())
	if err != nil {
		log.Fatalf("pipekit: %v", err)
	}

	job := sh.Job(factory)
	stdin := stream.Manual(os.Stdin, nil)
	stdout := stream.Manual(nil, os.Stdout)
	stderr := stream.Manual(nil, os.Stderr)
	if err := job.Run(context.Background(), stdin, stdout, stderr); err != nil {
		log.Fatalf("pipekit: %v", err)
	}

	// Forward interrupts to the pipeline instead of dying and orphaning it.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			job.Terminate()
		}
	}()

	statuses, err := job.Wait()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	last := statuses[len(statuses)-1]
	if last < 0 {
		// Mirror the shell convention for signal deaths.
		os.Exit(128 - last)
	}
	os.Exit(last)
}

// buildChain splits args at "|" tokens and joins the stages into a factory
// tree, resolving each stage's executable through the shell.
func buildChain(sh *shell.Shell, args []string) (pipeline.NodeFactory, error) {
	var chain pipeline.NodeFactory
	stage := make([]string, 0, len(args))

	flush := func() error {
		if len(stage) == 0 {
			return fmt.Errorf("empty pipeline stage")
		}
		f, err := sh.Command(stage[0], stage[1:]...)
		if err != nil {
			return err
		}
		if chain == nil {
			chain = f
		} else {
			chain = pipeline.Pipe(chain, f)
		}
		stage = stage[:0]
		return nil
	}

	for _, arg := range args {
		if arg == "|" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		stage = append(stage, arg)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return chain, nil
}
