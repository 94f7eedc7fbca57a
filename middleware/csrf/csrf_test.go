package csrf

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	values map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{values: map[string]string{}}
}

func (s *memoryStorage) Get(key string) (string, error) {
	return s.values[key], nil
}

func (s *memoryStorage) Set(key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *memoryStorage) Delete(key string) error {
	delete(s.values, key)
	return nil
}

func newMockContextWithBase(method string) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Method").Return(method)
	ctx.On("IP").Return("127.0.0.1")
	ctx.On("Locals", DefaultContextKey, mock.Anything).Return(nil)
	ctx.On("Locals", DefaultContextKey+"_field", mock.Anything).Return(nil)
	ctx.On("Locals", DefaultContextKey+"_header", mock.Anything).Return(nil)
	return ctx
}

func TestStoredTokenValidationSuccess(t *testing.T) {
	store := newMemoryStorage()
	cfg := Config{
		Storage: store,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	err := handler(getCtx)
	require.NoError(t, err)

	tokenVal, ok := getCtx.LocalsMock[DefaultContextKey].(string)
	require.True(t, ok)
	require.NotEmpty(t, tokenVal)
	require.Equal(t, tokenVal, store.values["ip_127.0.0.1"])

	postCtx := newMockContextWithBase("POST")
	postCtx.HeadersM[DefaultHeaderName] = tokenVal
	postCtx.On("GetString", DefaultHeaderName, "").Return(tokenVal).Maybe()

	err = handler(postCtx)
	require.NoError(t, err)
	require.True(t, postCtx.NextCalled)
}

func TestTokenStableAcrossRequests(t *testing.T) {
	store := newMemoryStorage()
	cfg := Config{
		Storage: store,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	first := newMockContextWithBase("GET")
	require.NoError(t, handler(first))

	second := newMockContextWithBase("GET")
	require.NoError(t, handler(second))

	require.Equal(t, first.LocalsMock[DefaultContextKey], second.LocalsMock[DefaultContextKey])
}

func TestTokenValidationMismatch(t *testing.T) {
	var captured error
	cfg := Config{
		Storage: newMemoryStorage(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	postCtx := newMockContextWithBase("POST")
	postCtx.HeadersM[DefaultHeaderName] = "tampered"
	postCtx.On("GetString", DefaultHeaderName, "").Return("tampered").Maybe()

	err := handler(postCtx)
	require.Error(t, err)
	require.ErrorIs(t, captured, ErrTokenMismatch)
	require.False(t, postCtx.NextCalled)
}

func TestTokenValidationMissing(t *testing.T) {
	var captured error
	cfg := Config{
		Storage: newMemoryStorage(),
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))

	postCtx := newMockContextWithBase("POST")
	postCtx.On("GetString", DefaultHeaderName, "").Return("").Maybe()
	postCtx.On("FormValue", DefaultFormFieldName).Return("")

	err := handler(postCtx)
	require.Error(t, err)
	require.ErrorIs(t, captured, ErrTokenMissing)
	require.False(t, postCtx.NextCalled)
}

func TestDefaultErrorHandlerForbids(t *testing.T) {
	handler := New(Config{Storage: newMemoryStorage()})(func(ctx router.Context) error { return nil })

	for name, setup := range map[string]func(*router.MockContext){
		"missing": func(ctx *router.MockContext) {
			ctx.On("GetString", DefaultHeaderName, "").Return("").Maybe()
			ctx.On("FormValue", DefaultFormFieldName).Return("")
		},
		"mismatch": func(ctx *router.MockContext) {
			ctx.HeadersM[DefaultHeaderName] = "not-the-token"
			ctx.On("GetString", DefaultHeaderName, "").Return("not-the-token").Maybe()
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := newMockContextWithBase("POST")
			setup(ctx)
			ctx.On("Status", router.StatusForbidden).Return(ctx)
			ctx.On("SendString", mock.Anything).Return(nil)

			require.NoError(t, handler(ctx))
			require.False(t, ctx.NextCalled)
			ctx.AssertCalled(t, "Status", router.StatusForbidden)
		})
	}
}

func TestSafeMethodsSkipValidation(t *testing.T) {
	handler := New(Config{Storage: newMemoryStorage()})(func(ctx router.Context) error { return nil })

	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		ctx := newMockContextWithBase(method)
		require.NoError(t, handler(ctx))
		require.True(t, ctx.NextCalled, "method %s should not require a token", method)
	}
}

func TestFormFieldFallback(t *testing.T) {
	store := newMemoryStorage()
	cfg := Config{
		Storage: store,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	handler := New(cfg)(func(ctx router.Context) error { return nil })

	getCtx := newMockContextWithBase("GET")
	require.NoError(t, handler(getCtx))
	tokenVal := getCtx.LocalsMock[DefaultContextKey].(string)

	postCtx := newMockContextWithBase("POST")
	postCtx.On("GetString", DefaultHeaderName, "").Return("").Maybe()
	postCtx.On("FormValue", DefaultFormFieldName).Return(tokenVal)

	require.NoError(t, handler(postCtx))
	require.True(t, postCtx.NextCalled)
}

func TestSessionKeyPrefersSessionID(t *testing.T) {
	store := newMemoryStorage()
	handler := New(Config{
		Storage: store,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	})(func(ctx router.Context) error { return nil })

	ctx := newMockContextWithBase("GET")
	ctx.LocalsMock["session_id"] = "sess-abc"

	require.NoError(t, handler(ctx))
	require.NotEmpty(t, store.values["sess-abc"])
	require.Empty(t, store.values["ip_127.0.0.1"])
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	require.NoError(t, err)
	require.Len(t, first, DefaultTokenLength*2)

	_, err = hex.DecodeString(first)
	require.NoError(t, err)

	second, err := GenerateToken()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestValidateToken(t *testing.T) {
	stored, err := GenerateToken()
	require.NoError(t, err)

	require.NoError(t, ValidateToken(stored, stored))
	require.ErrorIs(t, ValidateToken("", stored), ErrTokenMissing)
	require.ErrorIs(t, ValidateToken("tampered", stored), ErrTokenMismatch)
	require.ErrorIs(t, ValidateToken(stored, ""), ErrTokenMismatch)
}

func TestMissingStoragePanics(t *testing.T) {
	require.Panics(t, func() {
		handler := New(Config{})(func(ctx router.Context) error { return nil })
		handler(newMockContextWithBase("GET"))
	})
}

func TestTemplateHelpers(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock[DefaultContextKey] = "token123"
	ctx.LocalsMock[DefaultContextKey+"_field"] = "_token"
	ctx.LocalsMock[DefaultContextKey+"_header"] = "X-CSRF-Token"

	helpers := CSRFTemplateHelpers(ctx, "")
	require.Equal(t, "token123", helpers["csrf_token"])
	require.Equal(t, `<input type="hidden" name="_token" value="token123">`, helpers["csrf_field"])
	require.Equal(t, `<meta name="csrf-token" content="token123">`, helpers["csrf_meta"])
	require.Equal(t, "X-CSRF-Token", helpers["csrf_header_name"])
}
