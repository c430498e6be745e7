package errors

import (
	stdlib "errors"
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatalf("unexpected root: %v", got)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrModel,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrState,
			b:      Wrapf(Wrap(ErrState, "not active"), "deal %d", 4),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrOverflow, "too big"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"not-nil is not nil": {
			a:      ErrNotFound,
			b:      nil,
			wantIs: false,
		},
		"collection containing the error": {
			a:      ErrNotFound,
			b:      Append(ErrState, Wrap(ErrNotFound, "test")),
			wantIs: true,
		},
		"collection without the error": {
			a:      ErrNotFound,
			b:      Append(ErrState, ErrAmount),
			wantIs: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct{}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Register(ErrNotFound.ABCICode(), "again")
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	if err := fn(); !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %v", err)
	}
}

func TestStackTraceAttachedOnce(t *testing.T) {
	err := Wrap(Wrap(ErrEmpty, "inner"), "outer")
	if stackTrace(err) == nil {
		t.Fatal("stack trace not attached")
	}
	if got := fmt.Sprintf("%+v", err); len(got) <= len(err.Error()) {
		t.Fatalf("verbose format does not contain a stack trace: %q", got)
	}
}

func TestAppend(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := Append(nil, ErrEmpty); err != ErrEmpty {
		t.Fatalf("single error must not be wrapped, got %v", err)
	}
	err := Append(ErrAmount, Append(ErrEmpty, ErrState))
	u, ok := err.(unpacker)
	if !ok {
		t.Fatalf("want a collection, got %T", err)
	}
	if n := len(u.Unpack()); n != 3 {
		t.Fatalf("want 3 flattened errors, got %d", n)
	}
	if code, _ := ABCIInfo(err, false); code != ErrAmount.ABCICode() {
		t.Fatalf("want code of the first error, got %d", code)
	}
}
