// Package pipeline composes and runs multi-stage subprocess pipelines, the
// programmatic equivalent of shell | chains.
//
// Three layers cooperate:
//
//   - Factories (ProcFactory, ChannelFactory) are immutable, reusable
//     templates describing pipeline shape and per-stage stdio overrides.
//     Builder methods return modified copies, so one template can back any
//     number of independent executions.
//   - Nodes (Process, Channel) are the live counterparts of a running
//     pipeline: a Process wraps one OS process, a Channel joins two children
//     with an inter-stage pipe. Nodes expose poll, wait, and signal delivery
//     over the whole tree in deterministic left-to-right order.
//   - Job orchestrates exactly one build and run of a factory tree under a
//     resolved execution context and exposes the pipeline's outward stdio.
//
// Channels build their two sides concurrently. This is load-bearing, not an
// optimization: a producer can block on a full OS pipe before its consumer
// exists, so sequential construction would deadlock for data exceeding the
// pipe buffer.
//
// Exit statuses follow the process-reaping convention: a non-negative value
// is a normal exit code, a negative value -N means the process died on
// signal N.
package pipeline
