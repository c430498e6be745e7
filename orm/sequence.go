package orm

import (
	"encoding/binary"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Sequence maintains a counter, and generates a series of keys. Each key is
// greater than the last, both as a number and in bytes.Compare order of the
// encoded form.
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	return Sequence{
		id: []byte("_s." + bucket + ":" + name),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s Sequence) NextVal(db weave.KVStore) ([]byte, error) {
	_, bz, err := s.increment(db, 1)
	return bz, err
}

// NextInt increments the sequence and returns its state as int.
func (s Sequence) NextInt(db weave.KVStore) (uint64, error) {
	val, _, err := s.increment(db, 1)
	return val, err
}

// Current returns the most recently returned value of the sequence, zero if
// the sequence was never used. This method does not modify the sequence
// state.
func (s Sequence) Current(db weave.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, errors.Wrap(err, "cannot load sequence")
	}
	return DecodeSequence(raw)
}

// Set moves the sequence to given value. The value must not be lower than
// the current state as that would allow keys to be reused.
func (s Sequence) Set(db weave.KVStore, val uint64) error {
	cur, err := s.Current(db)
	if err != nil {
		return err
	}
	if val < cur {
		return errors.Wrapf(errors.ErrState, "sequence at %d cannot move back to %d", cur, val)
	}
	return db.Set(s.id, EncodeSequence(val))
}

func (s Sequence) increment(db weave.KVStore, inc uint64) (uint64, []byte, error) {
	val, err := s.Current(db)
	if err != nil {
		return 0, nil, err
	}
	if val+inc < val {
		return 0, nil, errors.Wrap(errors.ErrOverflow, "sequence exhausted")
	}
	val += inc
	raw := EncodeSequence(val)
	if err := db.Set(s.id, raw); err != nil {
		return 0, nil, errors.Wrap(err, "cannot store sequence")
	}
	return val, raw, nil
}

// DecodeSequence parses the 8 bytes big endian encoded value. Missing value
// is zero.
func DecodeSequence(bz []byte) (uint64, error) {
	if bz == nil {
		return 0, nil
	}
	if len(bz) != 8 {
		return 0, errors.Wrapf(errors.ErrInput, "sequence must be 8 bytes, got %d", len(bz))
	}
	return binary.BigEndian.Uint64(bz), nil
}

// EncodeSequence returns the 8 bytes big endian representation of the value.
func EncodeSequence(val uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, val)
	return bz
}
