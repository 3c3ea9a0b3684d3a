// Package diag defines the diagnostic model shared by keel's phases.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     the fixture loader and the layout engine.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional edits the CLI may print as suggestions.
//
// An illegal type cycle is reported as one SEM3001 error on the type that
// closed the cycle, followed by one "refers to" note per member of the chain.
//
// # Emitting diagnostics
//
// Producers use a diag.Reporter. ReportError/ReportWarning/ReportInfo return a
// ReportBuilder that chains WithNote / WithFix before Emit. BagReporter
// aggregates into a Bag, DedupReporter suppresses repeats. Both are safe to
// share between layout workers.
//
// # Rendering
//
// FormatShortDiagnostics renders one line per entry for tests and --quiet
// output. Pretty prints a source excerpt with a caret underline, coloured via
// fatih/color.
package diag
