package app

import (
	"reflect"

	weave "github.com/michaelwinczuk/agent-contracts"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler
type Decorators struct {
	chain []weave.Decorator
}

/*
ChainDecorators takes a chain of decorators,
and upon adding a final Handler (often a Router),
returns a Handler that will execute this whole stack.

  app.ChainDecorators(
    utils.NewLogging(),
    utils.NewRecovery(),
    sigs.NewDecorator(),
    utils.NewSavepoint().OnDeliver(),
  ).WithHandler(
    myapp.NewRouter(),
  )
*/
func ChainDecorators(chain ...weave.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain allows us to keep adding more Decorators to the chain
func (d Decorators) Chain(chain ...weave.Decorator) Decorators {
	chain = cutoffNil(chain)
	newChain := make([]weave.Decorator, 0, len(d.chain)+len(chain))
	newChain = append(newChain, d.chain...)
	newChain = append(newChain, chain...)
	return Decorators{chain: newChain}
}

// cutoffNil returns given decorators without the nil values. Optional
// decorators can be passed as nil.
func cutoffNil(ds []weave.Decorator) []weave.Decorator {
	res := make([]weave.Decorator, 0, len(ds))
	for _, d := range ds {
		if d == nil {
			continue
		}
		if v := reflect.ValueOf(d); v.Kind() == reflect.Ptr && v.IsNil() {
			continue
		}
		res = append(res, d)
	}
	return res
}

// WithHandler resolves the stack and returns a concrete Handler
// that will pass through the chain of decorators before calling
// the final Handler.
func (d Decorators) WithHandler(h weave.Handler) weave.Handler {
	// start wrapping the handler from last decorator to first one
	// as the top of the chain is understood to be executed first
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step captures one step executing a decorator around a
// specific Handler. Simplified version of a closure.
type step struct {
	d    weave.Decorator
	next weave.Handler
}

var _ weave.Handler = step{}

func (s step) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return s.d.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return s.d.Deliver(ctx, db, tx, s.next)
}
