package weave

import (
	"reflect"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Marshaller is anything that can be represented in binary.
//
// Marshal may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal.
//
// This is separated from Marshaller, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is message for the blockchain to take an action (make a state
// transition). It is just the request, and must be validated by the
// Handlers. All authentication information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Path returns the message path. This is used by the Router to
	// locate the proper Handler. Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one of the fields is invalid.
	Validate() error
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender (cryptographic signatures).
//
// Each application defines their own tx type, which embeds all
// the middlewares that it wish to use.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate.
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message.
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx.
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning the message, it is validated.
//
// Destination must be a pointer to the message type. Both a pointer to a
// value (&msg where msg is CreateMsg) and a pointer to a pointer (&msg where
// msg is *CreateMsg) are accepted.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "empty message")
	}
	src := reflect.ValueOf(msg)
	if src.Kind() == reflect.Ptr && src.IsNil() {
		return errors.Wrap(errors.ErrMsg, "empty message")
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.IsNil() {
		return errors.Wrap(errors.ErrHuman, "destination must be a non nil pointer")
	}

	switch target := dest.Elem(); {
	case src.Type() == target.Type():
		target.Set(src)
	case src.Kind() == reflect.Ptr && src.Elem().Type() == target.Type():
		target.Set(src.Elem())
	default:
		return errors.Wrapf(errors.ErrType, "want %T message, got %T", destination, msg)
	}

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
