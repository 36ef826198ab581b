package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestHTTPStatusError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *HTTPStatusError
		expected  string
		wantClass ErrorClass
	}{
		{
			name:      "not found",
			err:       &HTTPStatusError{StatusCode: 404, Status: "404 Not Found"},
			expected:  "Error: 404",
			wantClass: ErrorClassClient,
		},
		{
			name:      "too many requests",
			err:       &HTTPStatusError{StatusCode: 429},
			expected:  "Error: 429",
			wantClass: ErrorClassClient,
		},
		{
			name:      "bad gateway",
			err:       &HTTPStatusError{StatusCode: 502},
			expected:  "Error: 502",
			wantClass: ErrorClassServer,
		},
		{
			name:      "unexpected redirect",
			err:       &HTTPStatusError{StatusCode: 304},
			expected:  "Error: 304",
			wantClass: ErrorClassServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
			if got := tt.err.Class(); got != tt.wantClass {
				t.Errorf("Class() = %q, want %q", got, tt.wantClass)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	wrapped := errors.New("dial tcp: connection refused")
	err := &TransportError{URL: "http://any.com/", Err: wrapped}

	if err.Error() != "dial tcp: connection refused" {
		t.Errorf("Error() = %q, want underlying message", err.Error())
	}
	if !errors.Is(err, wrapped) {
		t.Error("errors.Is should work with wrapped error")
	}

	empty := &TransportError{}
	if empty.Error() != "transport error" {
		t.Errorf("Error() = %q, want \"transport error\"", empty.Error())
	}
	if empty.Unwrap() != nil {
		t.Error("Unwrap() should be nil")
	}
}

func TestDecodeError_Unwrap(t *testing.T) {
	wrapped := errors.New("unexpected end of JSON input")
	err := &DecodeError{Err: wrapped}

	if err.Error() != "decode response: unexpected end of JSON input" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, wrapped) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestUnknownError(t *testing.T) {
	err := &UnknownError{Value: 42}
	if err.Error() != "Unknown error" {
		t.Errorf("Error() = %q, want \"Unknown error\"", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap() of a non-error value should be nil")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "client", err: &HTTPStatusError{StatusCode: 404}, expected: ErrorClassClient},
		{name: "server", err: &HTTPStatusError{StatusCode: 503}, expected: ErrorClassServer},
		{name: "wrapped status", err: fmt.Errorf("load list: %w", &HTTPStatusError{StatusCode: 400}), expected: ErrorClassClient},
		{name: "transport", err: &TransportError{Err: context.Canceled}, expected: ErrorClassNetwork},
		{name: "decode", err: &DecodeError{Err: errors.New("bad")}, expected: ErrorClassDecode},
		{name: "unknown", err: &UnknownError{Value: "boom"}, expected: ErrorClassUnknown},
		{name: "plain error", err: errors.New("anything"), expected: ErrorClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	statusErr := &HTTPStatusError{StatusCode: 404}
	plain := errors.New("socket closed")

	tests := []struct {
		name   string
		value  any
		check  func(error) bool
		expect string
	}{
		{
			name:   "taxonomy error passes through",
			value:  statusErr,
			check:  func(err error) bool { return err == statusErr },
			expect: "same *HTTPStatusError",
		},
		{
			name:  "plain error becomes transport error",
			value: plain,
			check: func(err error) bool {
				var te *TransportError
				return errors.As(err, &te) && errors.Is(err, plain)
			},
			expect: "*TransportError wrapping the error",
		},
		{
			name:  "string becomes unknown error",
			value: "boom",
			check: func(err error) bool {
				var ue *UnknownError
				return errors.As(err, &ue) && ue.Value == "boom"
			},
			expect: "*UnknownError holding the value",
		},
		{
			name:  "nil becomes unknown error",
			value: nil,
			check: func(err error) bool {
				var ue *UnknownError
				return errors.As(err, &ue)
			},
			expect: "*UnknownError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize("http://any.com/", tt.value)
			if !tt.check(got) {
				t.Errorf("normalize(%v) = %T(%v), want %s", tt.value, got, got, tt.expect)
			}
		})
	}
}
