package hook

import "fmt"

// Interface is a try/catch/finally shaped execution hook. The bridge wraps
// request handlers in one so a handler panic is converted into an error the
// envelope can carry instead of tearing down the connection goroutine.
type Interface interface {
	// Try runs the guarded work.
	Try() error
	// Catch maps a Try error to the error surfaced to the caller.
	Catch(err error) error
	// Finally always runs, after Try and any Catch.
	Finally()
}

// Call executes hook with panic recovery.
func Call(hook Interface) (err error) {
	if hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}

	defer hook.Finally()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred during hook execution: %v", r)
		}
	}()

	tryErr := hook.Try()
	if tryErr != nil {
		err = hook.Catch(tryErr)
		return err
	}

	return nil
}

// Func adapts plain functions to Interface. Nil fields default to no-ops
// and an identity Catch.
type Func struct {
	TryFn     func() error
	CatchFn   func(err error) error
	FinallyFn func()
}

func (f Func) Try() error {
	if f.TryFn == nil {
		return nil
	}
	return f.TryFn()
}

func (f Func) Catch(err error) error {
	if f.CatchFn == nil {
		return err
	}
	return f.CatchFn(err)
}

func (f Func) Finally() {
	if f.FinallyFn != nil {
		f.FinallyFn()
	}
}
