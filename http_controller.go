package webcore

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes are the endpoints the controller registers
type AuthControllerRoutes struct {
	Login   string
	Refresh string
	Logout  string
	Profile string
}

// AuthController serves the JSON auth API. Tokens never appear in any of its
// response bodies, the transport layer keeps them in httpOnly cookies.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithAuthControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:   "/auth/login",
			Refresh: "/auth/refresh",
			Logout:  "/auth/logout",
			Profile: "/auth/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.respondError
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// RegisterAuthRoutes wires the auth endpoints into the router. The profile
// route is wrapped with the protected route middleware; the rest stay public
// since they are how a client gets authenticated in the first place.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout.post")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.authErrorHandler,
	)

	app.Get(controller.Routes.Profile, protected(controller.ProfileShow)).
		SetName("auth.profile.get")

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"validation": err,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload.Identifier))
		fmt.Println("=========================")
	}

	body, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.rotateSessionUser(ctx, body)

	return ctx.JSON(router.StatusOK, body)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	body, err := a.Auther.Refresh(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.attachSessionUser(ctx, body)

	return ctx.JSON(router.StatusOK, body)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	if err := a.Auther.Logout(ctx); err != nil {
		a.Logger.Error("logout error", "error", err)
	}

	if sid := SessionIDFromRouter(ctx); sid != "" {
		if err := a.Repo.Sessions().Delete(ctx.Context(), sid); err != nil {
			a.Logger.Warn("logout failed to drop session record", "error", err)
		}
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	principal, err := GetRouterPrincipal(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": principal,
	})
}

// rotateSessionUser swaps the pre login session for a fresh one and binds the
// user to it. Keeping the pre login sid would promote an id a third party may
// already know into an authenticated session, and its CSRF token with it.
// The client refetches the CSRF token after login.
func (a *AuthController) rotateSessionUser(ctx router.Context, body map[string]any) {
	principal, ok := body["user"].(Principal)
	if !ok || principal.IsZero() {
		return
	}

	uid, err := principal.UserUUID()
	if err != nil {
		return
	}

	if old := SessionIDFromRouter(ctx); old != "" {
		if err := a.Repo.Sessions().Delete(ctx.Context(), old); err != nil {
			a.Logger.Warn("failed to drop pre login session", "error", err)
		}
	}

	sid := RotateSessionID(ctx, a.Config)
	if err := a.Repo.Sessions().Put(ctx.Context(), &SessionRecord{ID: sid, UserID: &uid}); err != nil {
		a.Logger.Warn("failed to attach user to session", "error", err)
	}
}

// attachSessionUser binds the authenticated user to the existing session
// record. Used on refresh, where the sid already names an authenticated
// session and rotating it would invalidate the page's CSRF token for nothing.
func (a *AuthController) attachSessionUser(ctx router.Context, body map[string]any) {
	sid := SessionIDFromRouter(ctx)
	if sid == "" {
		return
	}

	principal, ok := body["user"].(Principal)
	if !ok || principal.IsZero() {
		return
	}

	uid, err := principal.UserUUID()
	if err != nil {
		return
	}

	if err := a.Repo.Sessions().AttachUser(ctx.Context(), sid, uid); err != nil {
		a.Logger.Warn("failed to attach user to session", "error", err)
	}
}

func (a *AuthController) authErrorHandler(ctx router.Context, err error) error {
	var richErr *errors.Error

	if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else if IsMalformedError(err) {
		richErr = ErrTokenMalformed
	} else if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	return a.respondError(ctx, richErr)
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	a.Logger.Info(
		"auth controller error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"status", code,
	)

	return ctx.JSON(code, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
