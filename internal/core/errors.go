package core

import "errors"

// Input errors are fatal to the current operation and carry no partial result.
var (
	ErrEmptyInput         = errors.New("empty input: the file has no lines")
	ErrReadTimeout        = errors.New("read timeout: the file could not be read in time")
	ErrUnreadableEncoding = errors.New("unreadable encoding: the file is not valid text")
	ErrFileTooLarge       = errors.New("file too large")
)

// ErrCatalogUnavailable means the Field Catalog was never loaded. It is a
// configuration error, not a data error.
var ErrCatalogUnavailable = errors.New("field catalog unavailable")

var (
	ErrImportInProgress = errors.New("import already in progress")
	ErrSessionNotFound  = errors.New("import session not found or expired")
	ErrRecordNotFound   = errors.New("shipment record not found")
	ErrTemplateNotFound = errors.New("mapping template not found")
	ErrTemplateExists   = errors.New("mapping template already exists")
	ErrInvalidMapping   = errors.New("invalid column mapping")
	ErrUnknownFormat    = errors.New("unknown export format")
	ErrUnknownField     = errors.New("unknown field")

	ErrImportNotFound    = errors.New("committed import not found")
	ErrAlreadyRolledBack = errors.New("import already rolled back")
)
