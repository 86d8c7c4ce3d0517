package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies fatal failures of a normalization or extraction run.
type ErrorKind string

const (
	KindUnreadableSource            ErrorKind = "unreadable_source"
	KindMissingColumns              ErrorKind = "missing_columns"
	KindAmbiguousTable              ErrorKind = "ambiguous_table"
	KindNoValidTransactions         ErrorKind = "no_valid_transactions"
	KindMalformedExtractionResponse ErrorKind = "malformed_extraction_response"
)

// Error is the single error type returned by the core stages.
type Error struct {
	Kind    ErrorKind
	Msg     string
	Columns []string // missing columns, only for KindMissingColumns
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrUnreadableSource            = &Error{Kind: KindUnreadableSource}
	ErrMissingColumns              = &Error{Kind: KindMissingColumns}
	ErrAmbiguousTable              = &Error{Kind: KindAmbiguousTable}
	ErrNoValidTransactions         = &Error{Kind: KindNoValidTransactions}
	ErrMalformedExtractionResponse = &Error{Kind: KindMalformedExtractionResponse}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, domain.ErrMissingColumns).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UnreadableSource reports a source that could not be opened or decoded.
func UnreadableSource(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUnreadableSource, Msg: fmt.Sprintf(format, args...), Err: err}
}

// MissingColumns reports strict-mode columns absent from the header.
func MissingColumns(columns []string) *Error {
	return &Error{
		Kind:    KindMissingColumns,
		Msg:     "Missing required columns: " + strings.Join(columns, ", ") + ". Expected format: Date,Description,Amount,Type",
		Columns: columns,
	}
}

// AmbiguousTable reports a table whose headers do not describe transactions.
func AmbiguousTable(table, reason string) *Error {
	msg := "no transaction table found"
	if table != "" {
		msg = fmt.Sprintf("table %q is not a transaction table", table)
	}
	if reason != "" {
		msg += ": " + reason
	}
	return &Error{Kind: KindAmbiguousTable, Msg: msg}
}

// NoValidTransactions reports that every row of a source was rejected.
func NoValidTransactions(source string) *Error {
	msg := "No valid transactions found in file"
	if source != "" {
		msg = fmt.Sprintf("No valid transactions found in %s", source)
	}
	return &Error{Kind: KindNoValidTransactions, Msg: msg}
}

// MalformedExtractionResponse reports an extraction reply that is not a transaction list.
func MalformedExtractionResponse(err error, msg string) *Error {
	return &Error{Kind: KindMalformedExtractionResponse, Msg: msg, Err: err}
}
