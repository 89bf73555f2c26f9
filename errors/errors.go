package errors

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig    Phase = "config"    // instance construction
	PhaseResolve   Phase = "resolve"   // specifier resolution
	PhaseParse     Phase = "parse"     // source parsing
	PhaseTransform Phase = "transform" // type stripping, rewriting
	PhaseRegistry  Phase = "registry"  // handle lookups
	PhaseLoad      Phase = "load"      // file reads
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidConfig     Kind = "invalid_config"
	KindParse             Kind = "parse_error"
	KindUnsupportedSyntax Kind = "unsupported_syntax"
	KindInvalidHandle     Kind = "invalid_handle"
	KindFeatureDisabled   Kind = "feature_disabled"
	KindInvalidInput      Kind = "invalid_input"
	KindIO                Kind = "io"
)

// Error is the structured error type used throughout the engine
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Specifier string
	Referrer  string
	File      string
	Detail    string
	Line      int
	Column    int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.File != "" {
		b.WriteString(" at ")
		b.WriteString(e.File)
		if e.Line > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(e.Line))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(e.Column))
		}
	}

	if e.Specifier != "" {
		b.WriteString(": ")
		b.WriteString(strconv.Quote(e.Specifier))
		if e.Referrer != "" {
			b.WriteString(" from ")
			b.WriteString(strconv.Quote(e.Referrer))
		}
	}

	if e.Detail != "" {
		if e.Specifier != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Specifier sets the module specifier and its referrer
func (b *Builder) Specifier(specifier, referrer string) *Builder {
	b.err.Specifier = specifier
	b.err.Referrer = referrer
	return b
}

// At sets the source position
func (b *Builder) At(file string, line, column int) *Builder {
	b.err.File = file
	b.err.Line = line
	b.err.Column = column
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching on Phase and Kind.
var (
	ErrResolutionNotFound = &Error{Phase: PhaseResolve, Kind: KindNotFound}
	ErrInvalidConfig      = &Error{Phase: PhaseConfig, Kind: KindInvalidConfig}
	ErrParse              = &Error{Phase: PhaseParse, Kind: KindParse}
	ErrUnsupportedSyntax  = &Error{Phase: PhaseTransform, Kind: KindUnsupportedSyntax}
	ErrInvalidHandle      = &Error{Phase: PhaseRegistry, Kind: KindInvalidHandle}
	ErrFeatureDisabled    = &Error{Phase: PhaseConfig, Kind: KindFeatureDisabled}
)

// Convenience constructors for common error patterns

// ResolutionNotFound creates an error for a specifier no candidate matched
func ResolutionNotFound(specifier, referrer, detail string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindNotFound,
		Specifier: specifier,
		Referrer:  referrer,
		Detail:    detail,
	}
}

// InvalidConfig creates a construction-time configuration error
func InvalidConfig(field string, value any, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Value:  value,
		Detail: fmt.Sprintf("%s: %s", field, detail),
	}
}

// ParseError creates a syntax error at a 1-based line and column
func ParseError(file string, line, column int, msg string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindParse,
		File:   file,
		Line:   line,
		Column: column,
		Detail: msg,
	}
}

// UnsupportedSyntax creates an error for a construct the transpiler refuses to emit
func UnsupportedSyntax(file string, line, column int, construct string) *Error {
	return &Error{
		Phase:  PhaseTransform,
		Kind:   KindUnsupportedSyntax,
		File:   file,
		Line:   line,
		Column: column,
		Detail: construct + " is not supported in strip-only mode",
	}
}

// InvalidHandle creates an error for a released, foreign or zero handle
func InvalidHandle(handle uint64, detail string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindInvalidHandle,
		Value:  handle,
		Detail: fmt.Sprintf("handle %#x: %s", handle, detail),
	}
}

// FeatureDisabled creates an error for a capability the environment does not provide
func FeatureDisabled(feature string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindFeatureDisabled,
		Detail: feature + " is not available in this environment",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ReadFailed creates an I/O error for a file read
func ReadFailed(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindIO,
		File:   path,
		Detail: "read file",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// UnresolvedImport is a single specifier left unchanged during transpilation
type UnresolvedImport struct {
	Cause     error
	File      string
	Specifier string
	Line      int
	Column    int
}

// UnresolvedImportsError reports every soft-failed import rewrite of a run
type UnresolvedImportsError struct {
	Imports []UnresolvedImport
}

// NewUnresolvedImportsError creates an error from soft-failed specifiers
func NewUnresolvedImportsError(imports []UnresolvedImport) *UnresolvedImportsError {
	return &UnresolvedImportsError{Imports: imports}
}

func (e *UnresolvedImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[transform] not_found: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d import specifier(s) left unresolved:\n", len(e.Imports))

	// Group by file for cleaner output
	byFile := make(map[string][]UnresolvedImport)
	var files []string
	for _, imp := range e.Imports {
		if _, exists := byFile[imp.File]; !exists {
			files = append(files, imp.File)
		}
		byFile[imp.File] = append(byFile[imp.File], imp)
	}
	sort.Strings(files)

	for _, f := range files {
		b.WriteString("\n  ")
		b.WriteString(f)
		b.WriteString(":\n")
		for _, imp := range byFile[f] {
			fmt.Fprintf(&b, "    - %q (%d:%d)\n", imp.Specifier, imp.Line, imp.Column)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *UnresolvedImportsError) Is(target error) bool {
	_, ok := target.(*UnresolvedImportsError)
	return ok
}
