// Package assert provides the minimal set of assertions shared by the tests
// of every package. For anything more elaborate use testify.
package assert

import (
	"reflect"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Tester is the minimal subset of testing.TB needed to run most assert commands
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Nil fails the test if given value is not nil.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// Use %+v so that if we are printing an error that supports
		// stack traces then a full stack trace is shown.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) (isnil bool) {
	if value == nil {
		return true
	}

	defer func() {
		if recover() != nil {
			isnil = false
		}
	}()

	// The argument must be a chan, func, interface, map, pointer, or slice
	// value; if it is not, IsNil panics.
	return reflect.ValueOf(value).IsNil()
}

// Equal fails the test if two values are not equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics will run given function and recover any panic. It will fail the test
// if given function call did not panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test if given error is not of the wanted kind. Use a nil
// want to assert that no error happened.
func IsErr(t Tester, want *errors.Error, got error) {
	t.Helper()
	if !want.Is(got) {
		t.Fatalf("want %v error, got %+v", want, got)
	}
}

// FieldError ensures that given error contains a single field error for the
// given name, tested by its type. To test that no error was found for a given
// field name, use nil as the match value.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)
	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("expected no %q error, got %v", fieldName, errs)
		}
		return
	}

	for _, e := range errs {
		if want.Is(e) {
			return
		}
	}
	for i, e := range errs {
		t.Logf("\terror %d: %q", i+1, e)
	}
	t.Fatalf("%v error for field %q not found", want, fieldName)
}
