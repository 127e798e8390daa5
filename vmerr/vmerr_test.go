package vmerr

import (
	"errors"
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
				Phase:  PhaseRuntime,
				Kind:   KindDivZero,
				Path:   []string{"main", "loop"},
				Detail: "a / b",
			},
			contains: []string{"[runtime]", "div_zero", "main.loop", "a / b"},
		},
		{
			name: "minimal error",
			err:  &Error{Phase: PhaseLoad, Kind: KindBadBitCode},
			contains: []string{"[load]", "bad_bitcode"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseGC,
				Kind:   KindOutOfMemory,
				Detail: "heap exhausted",
				Cause:  errors.New("mmap failed"),
			},
			contains: []string{"[gc]", "out_of_memory", "heap exhausted", "caused by", "mmap failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Phase: PhaseNative, Kind: KindNullNativeFunction, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the root cause")
	}
}

func TestError_Is(t *testing.T) {
	a := &Error{Phase: PhaseRuntime, Kind: KindStackOverflow}
	b := &Error{Phase: PhaseRuntime, Kind: KindStackOverflow}
	c := &Error{Phase: PhaseRuntime, Kind: KindDivZero}

	if !a.Is(b) {
		t.Error("expected same phase/kind to match")
	}
	if a.Is(c) {
		t.Error("expected different kind to not match")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseRuntime, KindPanic).
		Path("fn", "pc=12").
		Detail("opcode %d unknown", 200).
		Build()

	if err.Phase != PhaseRuntime || err.Kind != KindPanic {
		t.Fatal("builder did not set phase/kind")
	}
	if err.Detail != "opcode 200 unknown" {
		t.Errorf("unexpected detail: %q", err.Detail)
	}
}

func TestStackOverflow(t *testing.T) {
	err := StackOverflow(1025, 1024)
	if err.Kind != KindStackOverflow {
		t.Fatal("wrong kind")
	}
	if !contains(err.Detail, "1025") || !contains(err.Detail, "1024") {
		t.Errorf("detail missing depth info: %q", err.Detail)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
