package guardtheory

// Handler executes the business logic for one operation and produces a
// response envelope. Returning an error is equivalent to returning the
// corresponding error envelope; non-GuardError values render as INTERNAL.
type Handler func(*Context) (*Envelope, error)

// Middleware wraps a guard handler.
//
// Middleware is applied in registration order:
//
//	guard.Use(m1).Use(m2)
//
// yields the execution order:
//
//	m1 -> m2 -> handler
type Middleware func(Handler) Handler

// Use registers a global middleware.
func (g *Guard) Use(mw Middleware) *Guard {
	if g == nil || mw == nil {
		return g
	}
	g.middlewares = append(g.middlewares, mw)
	return g
}

func (g *Guard) applyMiddlewares(handler Handler) Handler {
	if g == nil || handler == nil || len(g.middlewares) == 0 {
		return handler
	}
	for i := len(g.middlewares) - 1; i >= 0; i-- {
		mw := g.middlewares[i]
		if mw == nil {
			continue
		}
		handler = mw(handler)
	}
	return handler
}
