// Package scheme loads and holds the authoritative item/rule catalog for a
// checkout session.
//
// A scheme is built once — from the textual scheme mini-language or
// programmatically through a Builder — and is immutable afterwards, so a
// single scheme may be shared read-only across checkout sessions.
//
// Loading is best-effort: malformed entries, references to unknown items,
// and structural definition errors are reported as per-line diagnostics and
// skipped; the remaining valid entries still produce a usable scheme. There
// is no fatal parse path short of failing to read the source at all.
package scheme
