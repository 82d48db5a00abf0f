// Package diag defines the diagnostic model shared by the snapshot decoder,
// the flattening engine, the manifest loader and the CLI.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form, a short Message, the Primary span and optional Notes. Notes
// should add context ("base declared here") rather than repeat the message.
//
// Stages emit through a Reporter, usually with the ReportBuilder helpers:
//
//	diag.ReportError(r, diag.FlatInheritanceCycle, sp, msg).
//		WithNote(other, "also part of the cycle").
//		Emit()
//
// BagReporter collects into a bounded Bag that supports Sort and Dedup.
// Rendering lives in internal/diagfmt.
package diag
