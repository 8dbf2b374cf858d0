// Package core provides the shipment batch pipeline: import, validation and
// export of carrier batch files.
//
// The package holds all domain logic, independent of any transport layer.
// It is used by the web handlers, the CLI and tests without modification.
//
// # Architecture
//
// Everything revolves around a [Catalog] of [FieldSpec]s describing the
// carrier's batch format, and a [ProfileTable] of per-country rules. Both
// are bundled into an [Env], loaded once at startup and passed explicitly.
//
// An import runs through these stages:
//
//  1. [ReadInput] reads the upload within size and time limits
//  2. [DecodeInput] turns the bytes into text (UTF-8, UTF-16, Windows-1252)
//  3. [Tokenize] detects the delimiter and splits header and rows
//  4. [MapHeaders] maps each header to a catalog key
//  5. [BuildRecord] converts each row into a [ShipmentRecord]
//  6. [ValidateRecord] produces a [Verdict] per record
//  7. [ReportBuilder] summarizes the verdicts as an [ImportReport]
//
// [Encoder] renders stored records as comma separated, semicolon separated
// (with byte order mark) or tagged markup output.
//
// # Service
//
// [Service] ties the pipeline to a record store. Imports are two-step:
// [Service.AnalyzeImport] opens a preview session and
// [Service.CommitImport] stores it. An [ImportGate] keeps at most one
// session open at a time.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (size, empty, timeout, encoding)
//   - IMP001-IMP003: Import session errors
//   - VAL001-VAL004: Record, field and template errors
//   - EXP001-EXP002: Export errors
//   - STO001-STO002: Record store errors
package core
