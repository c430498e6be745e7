package app

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// ResultSet is the serialized form of a list of query results. Both the key
// and the value of a query response are a ResultSet of the same size.
type ResultSet struct {
	Results [][]byte
}

func (r *ResultSet) Marshal() ([]byte, error) {
	return weave.MarshalBinary(r)
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	return weave.UnmarshalBinary(raw, r)
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []weave.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []weave.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues
// and makes then a consistent whole again
func JoinResults(keys, values *ResultSet) ([]weave.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrapf(errors.ErrState, "mismatched result set size: %d keys, %d values", len(kref), len(vref))
	}
	mods := make([]weave.Model, len(kref))
	for i := range mods {
		mods[i] = weave.Pair(kref[i], vref[i])
	}
	return mods, nil
}

// UnmarshalOneResult will parse a resultset, and
// it if is not empty, unmarshal the first result into o
func UnmarshalOneResult(bz []byte, o weave.Persistent) error {
	var res ResultSet
	if err := res.Unmarshal(bz); err != nil {
		return err
	}
	if len(res.Results) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty result set")
	}
	return o.Unmarshal(res.Results[0])
}
