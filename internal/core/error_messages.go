package core

// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the batch into smaller files
//	          Patterns: ErrFileTooLarge, "file too large"
//
//	FILE002 - Empty file: The file has no header or data lines
//	          Action: Check that you selected the right file
//	          Patterns: ErrEmptyInput, "empty input"
//
//	FILE003 - Read timeout: The file could not be read in time
//	          Action: Try again, or copy the file to a local disk first
//	          Patterns: ErrReadTimeout, "read timeout"
//
//	FILE004 - Unreadable encoding: The file is not valid text
//	          Action: Save the file as UTF-8 CSV from your spreadsheet program
//	          Patterns: ErrUnreadableEncoding, "unreadable encoding"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import in progress: Another import is already running
//	IMP002 - Session expired: The import preview is no longer available
//	IMP003 - Invalid mapping: A column was mapped to an unknown field
//	IMP004 - Import not found: No committed import has this id
//	IMP005 - Already rolled back: The import's records were already removed
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Record not found: The shipment does not exist
//	VAL002 - Unknown field: The field is not part of the carrier format
//	VAL003 - Template not found: The mapping template does not exist
//	VAL004 - Template exists: A template with this name already exists
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unknown format: The export format is not supported
//	EXP002 - Catalog unavailable: The field catalog is not loaded
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Connection refused: Unable to reach the record store
//	STO002 - Timeout: The record store did not respond in time
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Fallback (ERR000)
//
//	ERR000 - Unexpected error: check application logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a sentinel (matched with errors.Is) or a text pattern
// (case-insensitive substring) to a user message.
type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; the first match wins. Sentinels come
// first so wrapped errors resolve by identity before text.
var errorPatterns = []errorPattern{
	// File errors
	{
		target:  ErrFileTooLarge,
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the batch into smaller files",
			Code:    "FILE001",
		},
	},
	{
		target:  ErrEmptyInput,
		pattern: "empty input",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Check that you selected the right file",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrReadTimeout,
		pattern: "read timeout",
		msg: UserMessage{
			Message: "The file could not be read in time",
			Action:  "Try again, or copy the file to a local disk first",
			Code:    "FILE003",
		},
	},
	{
		target:  ErrUnreadableEncoding,
		pattern: "unreadable encoding",
		msg: UserMessage{
			Message: "The file is not readable text",
			Action:  "Save the file as UTF-8 CSV from your spreadsheet program",
			Code:    "FILE004",
		},
	},

	// Import errors
	{
		target:  ErrImportInProgress,
		pattern: "import already in progress",
		msg: UserMessage{
			Message: "Another import is already running",
			Action:  "Commit or cancel the open import first",
			Code:    "IMP001",
		},
	},
	{
		target:  ErrSessionNotFound,
		pattern: "import session not found",
		msg: UserMessage{
			Message: "The import preview is no longer available",
			Action:  "Upload the file again",
			Code:    "IMP002",
		},
	},
	{
		target:  ErrInvalidMapping,
		pattern: "invalid column mapping",
		msg: UserMessage{
			Message: "A column was mapped to an unknown field",
			Action:  "Pick a field from the list for every mapped column",
			Code:    "IMP003",
		},
	},
	{
		target:  ErrImportNotFound,
		pattern: "committed import not found",
		msg: UserMessage{
			Message: "No committed import has this id",
			Action:  "Check the import history",
			Code:    "IMP004",
		},
	},
	{
		target:  ErrAlreadyRolledBack,
		pattern: "import already rolled back",
		msg: UserMessage{
			Message: "This import was already rolled back",
			Action:  "No action needed",
			Code:    "IMP005",
		},
	},

	// Validation errors
	{
		target:  ErrRecordNotFound,
		pattern: "record not found",
		msg: UserMessage{
			Message: "The shipment does not exist",
			Action:  "Refresh the list and try again",
			Code:    "VAL001",
		},
	},
	{
		target:  ErrUnknownField,
		pattern: "unknown field",
		msg: UserMessage{
			Message: "The field is not part of the carrier format",
			Action:  "Check the field list",
			Code:    "VAL002",
		},
	},
	{
		target:  ErrTemplateNotFound,
		pattern: "template not found",
		msg: UserMessage{
			Message: "The mapping template does not exist",
			Action:  "Refresh the template list",
			Code:    "VAL003",
		},
	},
	{
		target:  ErrTemplateExists,
		pattern: "template already exists",
		msg: UserMessage{
			Message: "A template with this name already exists",
			Action:  "Choose another name or delete the old template",
			Code:    "VAL004",
		},
	},

	// Export errors
	{
		target:  ErrUnknownFormat,
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "The export format is not supported",
			Action:  "Choose csv, ssv or xml",
			Code:    "EXP001",
		},
	},
	{
		target:  ErrCatalogUnavailable,
		pattern: "field catalog unavailable",
		msg: UserMessage{
			Message: "The field catalog is not loaded",
			Action:  "Contact support; the service is misconfigured",
			Code:    "EXP002",
		},
	},

	// Storage errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the record store",
			Action:  "Please try again in a few moments",
			Code:    "STO001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The record store did not respond in time",
			Action:  "Please try again",
			Code:    "STO002",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are matched with errors.Is; other errors by text.
//
// Example:
//
//	msg := MapError(fmt.Errorf("import: %w", ErrEmptyInput))
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.pattern != "" && strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
