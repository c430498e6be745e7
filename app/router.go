package app

import (
	"fmt"
	"regexp"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-z0-9_]+(/[a-z0-9_]+)*$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]weave.Handler
}

var _ weave.Registry = (*Router)(nil)
var _ weave.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]weave.Handler, 10),
	}
}

// Handle adds a new Handler for the given path. This function panics if a
// handler for given path is already registered or the path is not valid.
func (r *Router) Handle(path string, h weave.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is found,
// returns a noSuchPath Handler. This function never returns nil.
func (r *Router) handler(path string) weave.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler{path: path}
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return r.handler(weave.GetPath(tx)).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return r.handler(weave.GetPath(tx)).Deliver(ctx, db, tx)
}

type noSuchPathHandler struct {
	path string
}

func (h noSuchPathHandler) Check(weave.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}

func (h noSuchPathHandler) Deliver(weave.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}
