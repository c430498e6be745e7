package weave

import (
	"github.com/michaelwinczuk/agent-contracts/errors"
	amino "github.com/tendermint/go-amino"
)

// codec encodes all persisted models. Models are plain structs, so no type
// registration is needed. Interface values, such as the message carried by a
// transaction, are encoded by the codec of the application.
var codec = amino.NewCodec()

// MarshalBinary serializes given model into its binary representation.
func MarshalBinary(o interface{}) ([]byte, error) {
	bz, err := codec.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal %T: %s", o, err)
	}
	return bz, nil
}

// UnmarshalBinary deserializes given binary representation into the model.
// The destination must be a pointer.
func UnmarshalBinary(bz []byte, o interface{}) error {
	if err := codec.UnmarshalBinaryBare(bz, o); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal %T: %s", o, err)
	}
	return nil
}
