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
			name: "full error",
			err: &Error{
				Phase:    PhaseEncode,
				Kind:     KindTypeMismatch,
				Path:     []string{"user", "address", "zip"},
				GoType:   "string",
				Declared: "int",
				Detail:   "cannot convert",
			},
			contains: []string{"[encode]", "type_mismatch", "user.address.zip", "string", "int", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTruncated,
			},
			contains: []string{"[decode]", "truncated"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindTransport,
				Detail: "write failed",
				Cause:  errors.New("broken pipe"),
			},
			contains: []string{"[encode]", "transport", "write failed", "caused by", "broken pipe"},
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
		Phase: PhaseEncode,
		Kind:  KindTransport,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	a := &Error{Phase: PhaseEncode, Kind: KindDepthExceeded}
	b := &Error{Phase: PhaseEncode, Kind: KindDepthExceeded, Detail: "other detail"}
	c := &Error{Phase: PhaseDecode, Kind: KindDepthExceeded}

	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different phase should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseEncode, KindPropertyRead).
		Path("order", "items").
		GoType("chan int").
		Declared("any").
		Value(42).
		Cause(cause).
		Detail("property %d failed", 3).
		Build()

	if err.Phase != PhaseEncode || err.Kind != KindPropertyRead {
		t.Errorf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if len(err.Path) != 2 || err.Path[0] != "order" {
		t.Errorf("unexpected path: %v", err.Path)
	}
	if err.Detail != "property 3 failed" {
		t.Errorf("unexpected detail: %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("cause not preserved")
	}
	if err.Value != 42 {
		t.Errorf("value not preserved: %v", err.Value)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		phase    Phase
		kind     Kind
		contains string
	}{
		{"unsupported", Unsupported(PhaseEncode, []string{"x"}, "chan int"), PhaseEncode, KindUnsupported, "chan int"},
		{"depth exceeded", DepthExceeded([]string{"a", "b"}, 65, 64), PhaseEncode, KindDepthExceeded, "65"},
		{"transport", Transport(errors.New("eof")), PhaseEncode, KindTransport, "eof"},
		{"property read", PropertyRead(nil, "age", errors.New("nope")), PhaseEncode, KindPropertyRead, `"age"`},
		{"invalid utf8", InvalidUTF8(PhaseEncode, nil, []byte{0xff, 0xfe}), PhaseEncode, KindInvalidUTF8, "fffe"},
		{"overflow", Overflow(PhaseDecode, nil, 300, "uint8"), PhaseDecode, KindOverflow, "300"},
		{"truncated", Truncated(nil, 4, 1), PhaseDecode, KindTruncated, "need 4"},
		{"not found", NotFound(PhaseConfig, "swap", "time.Time"), PhaseConfig, KindNotFound, "time.Time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("phase = %s, want %s", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestInvalidUTF8_TruncatesPreview(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = 0xff
	}
	err := InvalidUTF8(PhaseEncode, nil, data)
	// 32 bytes -> 64 hex chars
	if strings.Count(err.Detail, "ff") > 32 {
		t.Errorf("preview not truncated: %q", err.Detail)
	}
}
