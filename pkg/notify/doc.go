// Package notify delivers user-visible notices and watches the vault for
// changes.
//
// Notifiers are the user-facing half of rule execution: the mover and runner
// send one Notice per moved or failed file and one per aborted invocation.
// The diagnostic half goes to the zerolog logger and is not this package's
// concern.
//
// The Observer subscribes to a tree's change feed and asks an Attributor
// (the runner's invocation tracker) whether each change was caused by a rule
// invocation in flight.
package notify
