// Package runner executes move rules.
//
// An invocation walks a small state machine:
//
//	idle -> validating -> matching -> moving -> idle
//
// Validation checks that the rule is enabled, that its source is a folder and
// that its target exists (creating it if needed). Matching compiles the
// pattern once and walks the source. Moving hands the match set to the move
// executor. Any failure before moving ends the invocation with a coded error
// that is noticed, logged and stored in the report; it never escapes as a
// panic or a process exit.
//
// Every invocation holds a token from the Tracker for its whole duration so
// that tree observers can tell rule-made changes from external ones.
//
// The Runner also owns one command per rule ("run-rule:<id>"), kept in sync
// with the settings by Reconfigure.
package runner
