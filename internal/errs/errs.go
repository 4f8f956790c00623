// Package errs defines the language-neutral error kinds from spec §7 and
// their mapping onto the CLI exit-code contract from spec §6. The shape
// follows the teacher's internal/errors package: a single Error struct
// tagged with its Kind, carrying enough context to print a useful message
// and supporting errors.Unwrap so errors.Is/As compose across the stack.
package errs

import (
	"fmt"

	"github.com/bartolli/codanna-go/internal/ids"
)

// ExitCode mirrors spec §6's structured exit-code contract.
type ExitCode int

const (
	ExitSuccess             ExitCode = 0
	ExitGeneralError        ExitCode = 1
	ExitBlockingError       ExitCode = 2
	ExitNotFound            ExitCode = 3
	ExitParseError          ExitCode = 4
	ExitIoError             ExitCode = 5
	ExitConfigError         ExitCode = 6
	ExitIndexCorrupted      ExitCode = 7
	ExitUnsupportedOperation ExitCode = 8
)

// Kind is a closed enumeration of the error kinds from spec §7.
type Kind string

const (
	KindParse      Kind = "parse"
	KindResolution Kind = "resolution"
	KindIndex      Kind = "index"
	KindVector     Kind = "vector"
	KindIO         Kind = "io"
	KindConfig     Kind = "config"
	KindCorruption Kind = "corruption"
)

// ExitCodeFor maps an error kind to its CLI exit code.
func ExitCodeFor(k Kind) ExitCode {
	switch k {
	case KindParse:
		return ExitParseError
	case KindResolution:
		return ExitGeneralError
	case KindIndex:
		return ExitBlockingError
	case KindVector:
		return ExitBlockingError
	case KindIO:
		return ExitIoError
	case KindConfig:
		return ExitConfigError
	case KindCorruption:
		return ExitIndexCorrupted
	default:
		return ExitGeneralError
	}
}

// Error is the common shape for every typed error in the system.
type Error struct {
	Kind        Kind
	Op          string
	File        ids.FileId
	Path        string
	Underlying  error
	Recoverable bool
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Op, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Op, e.Underlying)
}

func (e *Error) Unwrap() error { return e.Underlying }

// ExitCode returns the exit code the CLI should surface for this error.
func (e *Error) ExitCode() ExitCode { return ExitCodeFor(e.Kind) }

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Underlying: err}
}

// Parse wraps a tree-sitter-grammar-init or unparsable-source failure.
// Per §7 this is surfaced; per-file parse failures inside a batch are
// instead recovered locally by the pipeline (empty symbol set), never
// constructed as this error — this constructor is for the "verify"
// command path and grammar-initialization failures.
func Parse(op string, file ids.FileId, path string, err error) *Error {
	e := newErr(KindParse, op, err)
	e.File, e.Path = file, path
	return e
}

// Resolution wraps an unresolved import path in a language that requires
// resolution. Per §7 this never aborts a file — it downgrades the edge
// to an external reference; callers log it rather than propagate it.
func Resolution(op, path string, err error) *Error {
	e := newErr(KindResolution, op, err)
	e.Path = path
	return e
}

// Index wraps a text-index write failure. Fatal for the current commit.
func Index(op string, err error) *Error {
	e := newErr(KindIndex, op, err)
	return e
}

// Vector wraps dimension mismatch / empty-cluster-set / corrupted vector
// file failures. Fatal for the current commit.
func Vector(op string, err error) *Error {
	e := newErr(KindVector, op, err)
	return e
}

// IO wraps a file read/write failure, surfaced with path.
func IO(op, path string, err error) *Error {
	e := newErr(KindIO, op, err)
	e.Path = path
	e.Recoverable = true
	return e
}

// Config wraps a malformed .codanna config error.
func Config(op string, err error) *Error {
	return newErr(KindConfig, op, err)
}

// Corruption wraps a checksum/version mismatch on persisted state.
// The caller must refuse to proceed.
func Corruption(op string, err error) *Error {
	return newErr(KindCorruption, op, err)
}
