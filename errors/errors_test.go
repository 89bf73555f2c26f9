package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "resolution error",
			err: &Error{
				Phase:     PhaseResolve,
				Kind:      KindNotFound,
				Specifier: "./util",
				Referrer:  "/app/main.js",
				Detail:    "no candidate file",
			},
			contains: []string{"[resolve]", "not_found", `"./util"`, `from "/app/main.js"`, "no candidate file"},
		},
		{
			name: "positioned error",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindParse,
				File:   "src/a.ts",
				Line:   3,
				Column: 7,
				Detail: "unexpected token",
			},
			contains: []string{"[parse]", "parse_error", "src/a.ts:3:7", "unexpected token"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRegistry,
				Kind:  KindInvalidHandle,
			},
			contains: []string{"[registry]", "invalid_handle"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindIO,
				Detail: "read file",
				Cause:  errors.New("permission denied"),
			},
			contains: []string{"[load]", "io", "read file", "caused by", "permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindIO,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := ResolutionNotFound("react", "/app/index.ts", "")

	if !errors.Is(err, ErrResolutionNotFound) {
		t.Error("Is should match same phase and kind")
	}
	if errors.Is(err, ErrParse) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindInvalidInput}) {
		t.Error("Is should not match different kind")
	}

	wrapped := Wrap(PhaseTransform, KindIO, err, "rewrite")
	if !errors.Is(wrapped, ErrResolutionNotFound) {
		t.Error("errors.Is should see through the cause chain")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseResolve, KindNotFound).
		Specifier("lodash/fp", "/app/a.js").
		At("/app/a.js", 4, 2).
		Value(42).
		Cause(cause).
		Detail("walked %d directories", 3).
		Build()

	if err.Phase != PhaseResolve {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseResolve)
	}
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
	}
	if err.Specifier != "lodash/fp" || err.Referrer != "/app/a.js" {
		t.Errorf("Specifier=%q Referrer=%q", err.Specifier, err.Referrer)
	}
	if err.Line != 4 || err.Column != 2 {
		t.Errorf("position = %d:%d, want 4:2", err.Line, err.Column)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "walked 3 directories" {
		t.Errorf("Detail = %v, want 'walked 3 directories'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidConfig", func(t *testing.T) {
		err := InvalidConfig("alias", "", "empty key")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidConfig)
		}
		if !strings.Contains(err.Detail, "alias") {
			t.Errorf("Detail = %v, should name the field", err.Detail)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError("a.ts", 2, 5, "missing }")
		if !errors.Is(err, ErrParse) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindParse)
		}
		if err.Line != 2 || err.Column != 5 {
			t.Errorf("position = %d:%d", err.Line, err.Column)
		}
	})

	t.Run("UnsupportedSyntax", func(t *testing.T) {
		err := UnsupportedSyntax("a.ts", 1, 1, "enum declaration")
		if !errors.Is(err, ErrUnsupportedSyntax) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedSyntax)
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		err := InvalidHandle(0x100000001, "released")
		if !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidHandle)
		}
		if !strings.Contains(err.Error(), "0x100000001") {
			t.Errorf("message %q should contain the handle", err.Error())
		}
	})

	t.Run("FeatureDisabled", func(t *testing.T) {
		err := FeatureDisabled("module resolution")
		if !errors.Is(err, ErrFeatureDisabled) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFeatureDisabled)
		}
	})

	t.Run("ReadFailed", func(t *testing.T) {
		err := ReadFailed("/x.ts", errors.New("boom"))
		if err.Kind != KindIO || err.File != "/x.ts" {
			t.Errorf("got %+v", err)
		}
	})
}

func TestUnresolvedImportsError(t *testing.T) {
	t.Run("grouped by file", func(t *testing.T) {
		err := NewUnresolvedImportsError([]UnresolvedImport{
			{File: "src/b.ts", Specifier: "virtual:polyfill", Line: 1, Column: 1},
			{File: "src/a.ts", Specifier: "./missing", Line: 3, Column: 8},
			{File: "src/b.ts", Specifier: "@scope/none", Line: 2, Column: 1},
		})

		msg := err.Error()
		if !strings.Contains(msg, "3 import specifier(s)") {
			t.Errorf("error should contain count, got: %s", msg)
		}
		if strings.Index(msg, "src/a.ts:") > strings.Index(msg, "src/b.ts:") {
			t.Errorf("files should be sorted, got: %s", msg)
		}
		if !strings.Contains(msg, `"./missing" (3:8)`) {
			t.Errorf("error should contain specifier position, got: %s", msg)
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := NewUnresolvedImportsError(nil)
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewUnresolvedImportsError([]UnresolvedImport{{Specifier: "x"}})
		if !errors.Is(err, &UnresolvedImportsError{}) {
			t.Error("errors.Is should match UnresolvedImportsError")
		}
	})
}
