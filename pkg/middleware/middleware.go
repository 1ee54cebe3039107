// Package middleware provides the HTTP wrappers shared by mounted modules.
package middleware

import "net/http"

// Func wraps a handler.
type Func = func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first entry is the outermost.
type Chain []Func

// Use appends fn to the end of the chain.
func (c *Chain) Use(fn Func) {
	*c = append(*c, fn)
}

// Then wraps h so a request passes through the chain in order before reaching h.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}
