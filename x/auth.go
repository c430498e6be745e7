package x

import (
	weave "github.com/michaelwinczuk/agent-contracts"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(weave.Context) []weave.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(weave.Context, weave.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators. Each
// condition is returned only once, in the order of first appearance.
func (m MultiAuth) GetConditions(ctx weave.Context) []weave.Condition {
	var res []weave.Condition
	for _, impl := range m.impls {
		for _, c := range impl.GetConditions(ctx) {
			if !hasCondition(res, c) {
				res = append(res, c)
			}
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx weave.Context, auth Authenticator) []weave.Address {
	conds := auth.GetConditions(ctx)
	addrs := make([]weave.Address, len(conds))
	for i, c := range conds {
		addrs[i] = c.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil
func MainSigner(ctx weave.Context, auth Authenticator) weave.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// AnySigner returns the first of the candidate addresses that is
// authenticated, or nil when none is.
func AnySigner(ctx weave.Context, auth Authenticator, candidates ...weave.Address) weave.Address {
	for _, a := range candidates {
		if len(a) != 0 && auth.HasAddress(ctx, a) {
			return a
		}
	}
	return nil
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx weave.Context, auth Authenticator, required []weave.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasAllConditions returns true if all elements in required are
// also in context.
func HasAllConditions(ctx weave.Context, auth Authenticator, required []weave.Condition) bool {
	return HasNConditions(ctx, auth, required, len(required))
}

// HasNConditions returns true if at least n elements in requested are
// also in context.
func HasNConditions(ctx weave.Context, auth Authenticator, requested []weave.Condition, n int) bool {
	if n <= 0 {
		return true
	}
	conds := auth.GetConditions(ctx)
	for _, c := range requested {
		if hasCondition(conds, c) {
			n--
			if n == 0 {
				return true
			}
		}
	}
	return false
}

func hasCondition(conds []weave.Condition, c weave.Condition) bool {
	for _, p := range conds {
		if p.Equals(c) {
			return true
		}
	}
	return false
}
