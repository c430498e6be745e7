package weave

import "github.com/michaelwinczuk/agent-contracts/errors"

// Metadata is embedded in every persisted model and message. The schema
// version allows the serialized form to evolve.
type Metadata struct {
	Schema uint32
}

// Validate returns an error if the metadata is not usable.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be at least 1")
	}
	return nil
}
