package code

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCode_String(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{ParseError, "parse error"},
		{InvalidRequest, "invalid request"},
		{MethodNotFound, "method not found"},
		{InvalidParams, "invalid parameters"},
		{InternalError, "internal error"},
		{IllegalState, "illegal state"},
		{Code(12345), "error code 12345"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCode_Err(t *testing.T) {
	if err := NoError.Err(); err != nil {
		t.Errorf("NoError.Err() = %v, want nil", err)
	}
	err := InvalidParams.Err()
	if err == nil {
		t.Fatal("InvalidParams.Err() = nil, want non-nil")
	}
	var c Coder
	if !errors.As(err, &c) {
		t.Fatal("expected err to satisfy Coder")
	}
	if c.Code() != InvalidParams {
		t.Errorf("c.Code() = %v, want %v", c.Code(), InvalidParams)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, NoError},
		{"coder", InvalidRequest.Err(), InvalidRequest},
		{"wrapped coder", fmt.Errorf("wrap: %w", MethodNotFound.Err()), MethodNotFound},
		{"cancelled", context.Canceled, Cancelled},
		{"deadline exceeded", context.DeadlineExceeded, DeadlineExceeded},
		{"wrapped cancelled", fmt.Errorf("dial: %w", context.Canceled), Cancelled},
		{"opaque", errors.New("boom"), SystemError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.want {
				t.Errorf("FromError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestInServerErrorRange(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{NoError, true},
		{IllegalState, true},
		{Code(-32000), true},
		{Code(-32099), true},
		{Code(-32100), false},
		{Code(-31999), false},
		{InvalidRequest, false},
	}
	for _, tt := range tests {
		if got := InServerErrorRange(tt.code); got != tt.want {
			t.Errorf("InServerErrorRange(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	c := Register(-31500, "custom demo error")
	if got := c.String(); got != "custom demo error" {
		t.Errorf("c.String() = %q, want %q", got, "custom demo error")
	}

	// Re-registering the same value with the same message is fine.
	Register(-31500, "custom demo error")

	defer func() {
		if recover() == nil {
			t.Error("expected panic when re-registering a code with a different message")
		}
	}()
	Register(-31500, "a different message")
}
