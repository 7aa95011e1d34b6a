package guardtheory

import (
	"context"
	"strings"
	"time"
)

// Request is the slice of an incoming request the guard layer needs: enough
// to identify the logical operation and fingerprint its payload.
type Request struct {
	Method  string
	Route   string
	Headers map[string][]string
	Body    []byte
}

// Context is the per-request context passed to handlers and middleware.
//
// SubjectID is set by session validation (an external collaborator) before
// the guard chain runs; guards reject when it is missing.
type Context struct {
	ctx     context.Context
	Request Request
	clock   Clock
	ids     IDGenerator
	values  map[string]any

	SubjectID string
	RequestID string
}

func (c *Context) Context() context.Context {
	if c == nil || c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Context) Now() time.Time {
	if c == nil || c.clock == nil {
		return time.Now()
	}
	return c.clock.Now()
}

func (c *Context) NewID() string {
	if c == nil || c.ids == nil {
		return ULIDGenerator{}.NewID()
	}
	return c.ids.NewID()
}

// Header returns the first value of a header, matched case-insensitively.
func (c *Context) Header(name string) string {
	if c == nil {
		return ""
	}
	for key, values := range c.Request.Headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// Set stores a per-request value, visible to later middleware and the handler.
func (c *Context) Set(key string, value any) {
	if c == nil {
		return
	}
	if c.values == nil {
		c.values = map[string]any{}
	}
	c.values[key] = value
}

// Value returns a per-request value stored with Set.
func (c *Context) Value(key string) any {
	if c == nil || c.values == nil {
		return nil
	}
	return c.values[key]
}
