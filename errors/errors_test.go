package errors

import (
	"errors"
	"fmt"
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
			name: "full error",
			err: &Error{
				Phase:  PhaseOptimize,
				Kind:   KindUnsatisfiable,
				Fields: []string{"owner", "balance"},
				Detail: "locks overlap",
			},
			contains: []string{"[optimize]", "unsatisfiable_constraints", "owner, balance", "locks overlap"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseSchema,
				Kind:  KindEmptySchema,
			},
			contains: []string{"[schema]", "empty_schema"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseConfig,
				Kind:   KindInvalidConfig,
				Detail: "schema.lua",
				Cause:  errors.New("unexpected symbol"),
			},
			contains: []string{"[config]", "invalid_config", "schema.lua", "caused by", "unexpected symbol"},
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
		Phase: PhasePlugin,
		Kind:  KindPlugin,
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
	err := &Error{
		Phase:  PhasePack,
		Kind:   KindInvalidField,
		Fields: []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhasePack, Kind: KindInvalidField}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseSchema, Kind: KindInvalidField}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhasePack, Kind: KindDuplicateName}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhasePack, Kind: KindInvalidField}) {
		t.Error("errors.Is should match")
	}
}

func TestIsKind(t *testing.T) {
	inner := DuplicateName(PhaseSchema, "owner")
	wrapped := fmt.Errorf("load: %w", InvalidConfig("schema.json", inner))

	if !IsKind(wrapped, KindInvalidConfig) {
		t.Error("IsKind should find outer kind")
	}
	if !IsKind(wrapped, KindDuplicateName) {
		t.Error("IsKind should find kind in cause chain")
	}
	if IsKind(wrapped, KindEmptySchema) {
		t.Error("IsKind matched absent kind")
	}
	if IsKind(errors.New("plain"), KindEmptySchema) {
		t.Error("IsKind matched plain error")
	}
	if got := KindOf(wrapped); got != KindInvalidConfig {
		t.Errorf("KindOf = %q, want %q", got, KindInvalidConfig)
	}
}

func TestIsNonFatal(t *testing.T) {
	if !IsNonFatal(BudgetExceeded(100, 101, nil)) {
		t.Error("budget exceeded should be non-fatal")
	}
	if IsNonFatal(EmptySchema(PhaseSchema)) {
		t.Error("empty schema should be fatal")
	}
	if IsNonFatal(nil) {
		t.Error("nil should not be non-fatal")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseOptimize, KindUnsatisfiable).
		Fields("a", "b").
		Value(3).
		Cause(cause).
		Detail("slot %d claimed twice", 3).
		Build()

	if err.Phase != PhaseOptimize {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseOptimize)
	}
	if err.Kind != KindUnsatisfiable {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsatisfiable)
	}
	if len(err.Fields) != 2 || err.Fields[0] != "a" || err.Fields[1] != "b" {
		t.Errorf("Fields = %v, want [a b]", err.Fields)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "slot 3 claimed twice" {
		t.Errorf("Detail = %v, want 'slot 3 claimed twice'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidField", func(t *testing.T) {
		err := InvalidField(PhaseSchema, "owner", 40)
		if err.Kind != KindInvalidField {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidField)
		}
		if err.Value != 40 {
			t.Errorf("Value = %v, want 40", err.Value)
		}
		if !strings.Contains(err.Error(), "owner") {
			t.Errorf("message %q should name the field", err.Error())
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		err := DuplicateName(PhasePack, "owner")
		if err.Kind != KindDuplicateName {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDuplicateName)
		}
	})

	t.Run("EmptySchema", func(t *testing.T) {
		err := EmptySchema(PhaseOptimize)
		if err.Kind != KindEmptySchema || err.Phase != PhaseOptimize {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("Unsatisfiable", func(t *testing.T) {
		err := Unsatisfiable(PhaseOptimize, "same position", "a", "b")
		if len(err.Fields) != 2 {
			t.Errorf("Fields = %v, want 2 names", err.Fields)
		}
	})

	t.Run("BudgetExceeded", func(t *testing.T) {
		err := BudgetExceeded(1000, 1001, nil)
		if !strings.Contains(err.Detail, "1000") {
			t.Errorf("Detail = %v, should contain limit", err.Detail)
		}
	})

	t.Run("UnknownField", func(t *testing.T) {
		err := UnknownField(PhaseCost, "ghost")
		if err.Kind != KindUnknownField {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnknownField)
		}
	})

	t.Run("Plugin", func(t *testing.T) {
		err := Plugin("missing export", nil)
		if err.Kind != KindPlugin || err.Phase != PhasePlugin {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})
}
