// Package pattern compiles rule file patterns and tests file names against them.
//
// A pattern is a regular expression applied to a file's base name with an
// unanchored search: "\.pdf$" matches "report.pdf" and "pdf" matches
// "my-pdf-notes.md". Nothing is implied: no case folding, no full-match
// anchoring. Authors anchor explicitly with ^ and $ and opt into case
// insensitivity with an inline flag where the engine supports one.
//
// # Engines
//
//   - ecmascript (default): JavaScript RegExp semantics via regexp2, which
//     supports lookarounds and backreferences. Matching is bounded by a
//     timeout; a timed out match counts as no match.
//   - re2: Go's regexp package. Linear time, no lookarounds.
//
// Patterns are compiled once per rule invocation and the compiled Matcher is
// reused for every file of that walk.
package pattern
