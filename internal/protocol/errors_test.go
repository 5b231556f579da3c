package protocol

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		kind     Kind
	}{
		{ConnectionFailure("socket not connected", nil), ErrConnectionFailure, KindConnectionFailure},
		{RequestMalformed("empty request", nil), ErrRequestMalformed, KindRequestMalformed},
		{ResponseMalformed("unexpected rcode 7"), ErrResponseMalformed, KindResponseMalformed},
		{ResponseError("bad exchange"), ErrResponseError, KindResponseError},
		{Timeout("reply", context.DeadlineExceeded), ErrTimeout, KindTimeout},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Fatalf("%v: expected match with %v", tc.err, tc.sentinel)
		}
		if KindOf(tc.err) != tc.kind {
			t.Fatalf("%v: unexpected kind %v", tc.err, KindOf(tc.err))
		}
		wrapped := fmt.Errorf("publish: %w", tc.err)
		if !errors.Is(wrapped, tc.sentinel) || KindOf(wrapped) != tc.kind {
			t.Fatalf("%v: kind lost through wrapping", tc.err)
		}
	}
}

func TestErrorKindsDoNotCrossMatch(t *testing.T) {
	err := ResponseError("bad exchange")
	if errors.Is(err, ErrResponseMalformed) || errors.Is(err, ErrConnectionFailure) {
		t.Fatalf("response error matched foreign kind")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain error")
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := Timeout("reply", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to unwrap, got %v", err)
	}
	if got := ResponseError("bad exchange").Error(); got != "protocol: response error: bad exchange" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestVersionString(t *testing.T) {
	if Version != VersionMajor*100+VersionMinor {
		t.Fatalf("unexpected version: %d", Version)
	}
	if VersionString() != "1" {
		t.Fatalf("unexpected version text: %q", VersionString())
	}
}
