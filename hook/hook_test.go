package hook

import (
	"errors"
	"testing"
)

func TestCall_Success(t *testing.T) {
	ran := false
	finallyRan := false
	err := Call(Func{
		TryFn:     func() error { ran = true; return nil },
		FinallyFn: func() { finallyRan = true },
	})
	if err != nil {
		t.Fatalf("Call returned %v; want nil", err)
	}
	if !ran || !finallyRan {
		t.Errorf("ran=%v finallyRan=%v; want both true", ran, finallyRan)
	}
}

func TestCall_ErrorPassesThroughCatch(t *testing.T) {
	tryErr := errors.New("try failed")
	wrapped := errors.New("wrapped")
	err := Call(Func{
		TryFn: func() error { return tryErr },
		CatchFn: func(err error) error {
			if err != tryErr {
				t.Errorf("Catch received %v; want %v", err, tryErr)
			}
			return wrapped
		},
	})
	if err != wrapped {
		t.Errorf("Call returned %v; want %v", err, wrapped)
	}
}

func TestCall_IdentityCatchByDefault(t *testing.T) {
	tryErr := errors.New("try failed")
	if err := Call(Func{TryFn: func() error { return tryErr }}); err != tryErr {
		t.Errorf("Call returned %v; want %v", err, tryErr)
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	finallyRan := false
	err := Call(Func{
		TryFn:     func() error { panic("boom") },
		FinallyFn: func() { finallyRan = true },
	})
	if err == nil {
		t.Fatalf("expected an error from a panicking Try")
	}
	if !finallyRan {
		t.Errorf("Finally must run even when Try panics")
	}
}

func TestCall_NilHook(t *testing.T) {
	if err := Call(nil); err == nil {
		t.Errorf("expected an error for a nil hook")
	}
}
