package orm

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// note is a minimal model used by the tests of this package.
type note struct {
	Metadata *weave.Metadata
	Owner    weave.Address
	Text     string
}

func (n *note) Marshal() ([]byte, error)    { return weave.MarshalBinary(n) }
func (n *note) Unmarshal(raw []byte) error { return weave.UnmarshalBinary(raw, n) }

func (n *note) Validate() error {
	if err := n.Metadata.Validate(); err != nil {
		return err
	}
	if n.Text == "" {
		return errors.Wrap(errors.ErrEmpty, "text")
	}
	return nil
}

func ownerIndexer(m Model) ([]byte, error) {
	n, ok := m.(*note)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return n.Owner, nil
}

func newNote(owner weave.Address, text string) *note {
	return &note{
		Metadata: &weave.Metadata{Schema: 1},
		Owner:    owner,
		Text:     text,
	}
}

// label implements Model on a value receiver, which a bucket must refuse.
type label string

func (l label) Marshal() ([]byte, error)   { return []byte(l), nil }
func (l label) Unmarshal(raw []byte) error { return nil }
func (l label) Validate() error            { return nil }
