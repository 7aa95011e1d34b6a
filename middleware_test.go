package guardtheory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func namedMiddleware(name string, order *[]string) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) (*Envelope, error) {
			*order = append(*order, name)
			return next(c)
		}
	}
}

func TestUse_AppliesInRegistrationOrder(t *testing.T) {
	var order []string
	guard := New()
	guard.Use(namedMiddleware("first", &order)).
		Use(namedMiddleware("second", &order)).
		Use(namedMiddleware("third", &order))

	env := guard.Execute(context.Background(), Request{Route: "logs.create"}, "subject-1", func(*Context) (*Envelope, error) {
		order = append(order, "handler")
		return MustSuccess(200, nil), nil
	})
	require.True(t, env.OK)
	require.Equal(t, []string{"first", "second", "third", "handler"}, order)
}

func TestExecute_ShortCircuitingMiddlewareSkipsHandler(t *testing.T) {
	guard := New()
	guard.Use(func(Handler) Handler {
		return func(*Context) (*Envelope, error) {
			return nil, NewGuardError(CodeRateLimited, messageRateLimited)
		}
	})

	handlerRan := false
	env := guard.Execute(context.Background(), Request{}, "subject-1", func(*Context) (*Envelope, error) {
		handlerRan = true
		return MustSuccess(200, nil), nil
	})
	require.False(t, handlerRan)
	require.False(t, env.OK)
	require.Equal(t, CodeRateLimited, env.Error.Code)
	require.Equal(t, 429, env.Status)
}

func TestExecute_HandlerErrorRendersEnvelope(t *testing.T) {
	guard := New()

	env := guard.Execute(context.Background(), Request{}, "subject-1", func(*Context) (*Envelope, error) {
		return nil, NewGuardError(CodeValidationError, "activity is required")
	})
	require.False(t, env.OK)
	require.Equal(t, CodeValidationError, env.Error.Code)
	require.Equal(t, 400, env.Status)
}

func TestExecute_NilHandler(t *testing.T) {
	guard := New()

	env := guard.Execute(context.Background(), Request{}, "subject-1", nil)
	require.False(t, env.OK)
	require.Equal(t, CodeNotFound, env.Error.Code)
}

func TestContext_HeaderIsCaseInsensitive(t *testing.T) {
	guard := New()
	c := guard.NewContext(context.Background(), Request{
		Headers: map[string][]string{"Idempotency-Key": {"abc", "def"}},
	}, "subject-1")

	require.Equal(t, "abc", c.Header("idempotency-key"))
	require.Equal(t, "abc", c.Header("IDEMPOTENCY-KEY"))
	require.Empty(t, c.Header("X-Missing"))
}

func TestContext_SetAndValue(t *testing.T) {
	guard := New()
	c := guard.NewContext(context.Background(), Request{}, "subject-1")

	require.Nil(t, c.Value("missing"))
	c.Set("k", 42)
	require.Equal(t, 42, c.Value("k"))
}

func TestNewContext_AssignsRequestID(t *testing.T) {
	guard := New()

	first := guard.NewContext(context.Background(), Request{}, "subject-1")
	second := guard.NewContext(context.Background(), Request{}, "subject-1")
	require.NotEmpty(t, first.RequestID)
	require.NotEqual(t, first.RequestID, second.RequestID)
}
