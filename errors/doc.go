// Package errors provides structured error types for the modkit engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the specifier/referrer pair for resolution failures and a
// 1-based line/column for parse and syntax failures, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindNotFound).
//		Specifier("react", "/app/src/index.tsx").
//		Detail("no node_modules directory contains the package").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ResolutionNotFound("./util", "/app/main.js", "")
//	err := errors.ParseError("main.ts", 3, 14, "unexpected token")
//
// Sentinels such as ErrResolutionNotFound match any error with the same Phase
// and Kind through the standard errors.Is.
package errors
