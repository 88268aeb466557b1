package middleware

import (
	"net/http"
	"slices"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes mws into one Middleware whose first entry is outermost.
// Nil entries are dropped, so optional layers can be listed unconditionally.
func Chain(mws ...Middleware) Middleware {
	active := slices.DeleteFunc(slices.Clone(mws), func(mw Middleware) bool { return mw == nil })
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(active) {
			h = mw(h)
		}
		return h
	}
}
