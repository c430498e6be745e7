package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches a field name to err. It returns nil when err is nil, so
// validation code can call it unconditionally.
//
// Field names follow Go naming. Nested fields use dot notation, slice
// elements use their index, for example Deals.2.Amount.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField adds the field error, if any, to the collected errors.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error { return err.parent }

func (err *fieldError) Field() string { return err.field }

type fielder interface {
	Field() string
}

// FieldErrors returns every error created for fieldName, searching
// collections and wrapped errors. The search stops at the first matching
// error of each branch.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			return append(res, err)
		}
		// A collection already covers all of its children.
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				res = append(res, FieldErrors(e, fieldName)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return res
}
