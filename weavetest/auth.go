package weavetest

import (
	"context"
	"fmt"

	weave "github.com/michaelwinczuk/agent-contracts"
)

// Auth is a mock implementing x.Authenticator interface.
//
// All conditions referenced by either Signer or Signers are authenticated.
// Signer is a shortcut for the most common single signer case.
type Auth struct {
	Signer  weave.Condition
	Signers []weave.Condition
}

func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	// Signer goes first so that it is the main signer.
	return append([]weave.Condition{a.Signer}, a.Signers...)
}

func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// Conditions are stored in and read from the context.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context.
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetConditions(ctx weave.Context, conds ...weave.Condition) weave.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]weave.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []weave.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []weave.Condition, addr weave.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
