// Package harness executes YAML conformance scenarios against the checkout
// engine.
//
// A scenario names a scheme file, a sequence of scans, optional per-scan
// expectations, and assertions over the finished session. Scenarios are
// the black-box complement to the unit tests: they exercise the loader,
// the matcher, and the checkout together, and their traces can be pinned
// with golden files.
package harness
