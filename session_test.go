package webcore_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	webcore "github.com/veridianlabs/webcore"
)

func TestSessionMiddleware_MintsSessionID(t *testing.T) {
	handlerCalled := false
	handler := webcore.SessionMiddleware(newTestConfig())(func(ctx router.Context) error {
		handlerCalled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("Cookies", webcore.SessionCookie).Return("").Maybe()
	ctx.On("Locals", webcore.SessionIDLocalsKey, mock.Anything).Return(nil)

	var minted *router.Cookie
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == webcore.SessionCookie
	})).Run(func(args mock.Arguments) {
		minted = args.Get(0).(*router.Cookie)
	}).Return()

	require.NoError(t, handler(ctx))
	require.True(t, handlerCalled)

	require.NotNil(t, minted)
	_, err := uuid.Parse(minted.Value)
	assert.NoError(t, err, "session id should be a uuid")
	assert.True(t, minted.HTTPOnly)
	assert.Equal(t, "Lax", minted.SameSite)
	assert.True(t, minted.Expires.After(time.Now()))

	sid, ok := ctx.LocalsMock[webcore.SessionIDLocalsKey].(string)
	require.True(t, ok)
	assert.Equal(t, minted.Value, sid)
}

func TestSessionMiddleware_KeepsExistingSessionID(t *testing.T) {
	existing := uuid.NewString()

	handler := webcore.SessionMiddleware(newTestConfig())(func(ctx router.Context) error {
		return nil
	})

	ctx := router.NewMockContext()
	ctx.CookiesM[webcore.SessionCookie] = existing
	ctx.On("Cookies", webcore.SessionCookie).Return(existing).Maybe()
	ctx.On("Locals", webcore.SessionIDLocalsKey, existing).Return(nil)

	require.NoError(t, handler(ctx))
	assert.Equal(t, existing, ctx.LocalsMock[webcore.SessionIDLocalsKey])
}

func TestRotateSessionID(t *testing.T) {
	existing := uuid.NewString()

	ctx := router.NewMockContext()
	ctx.CookiesM[webcore.SessionCookie] = existing
	ctx.On("Cookies", webcore.SessionCookie).Return(existing).Maybe()
	ctx.On("Locals", webcore.SessionIDLocalsKey, mock.Anything).Return(nil)

	var minted *router.Cookie
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == webcore.SessionCookie
	})).Run(func(args mock.Arguments) {
		minted = args.Get(0).(*router.Cookie)
	}).Return()

	sid := webcore.RotateSessionID(ctx, newTestConfig())

	require.NotNil(t, minted)
	assert.Equal(t, sid, minted.Value)
	assert.NotEqual(t, existing, sid, "rotation must mint a fresh id")
	assert.True(t, minted.HTTPOnly)
	assert.Equal(t, sid, ctx.LocalsMock[webcore.SessionIDLocalsKey])
}

func TestSessionIDFromRouter(t *testing.T) {
	t.Run("prefers the locals value", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock[webcore.SessionIDLocalsKey] = "sess-1"

		assert.Equal(t, "sess-1", webcore.SessionIDFromRouter(ctx))
	})

	t.Run("falls back to the cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.CookiesM[webcore.SessionCookie] = "sess-2"
		ctx.On("Cookies", webcore.SessionCookie).Return("sess-2").Maybe()

		assert.Equal(t, "sess-2", webcore.SessionIDFromRouter(ctx))
	})
}
