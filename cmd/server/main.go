package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	webcore "github.com/veridianlabs/webcore"
	"github.com/veridianlabs/webcore/chatbot"
	"github.com/veridianlabs/webcore/crm"
	"github.com/veridianlabs/webcore/middleware/csrf"
)

type App struct {
	config  *gconfig.Container[*BaseConfig]
	bunDB   *bun.DB
	auth    *webcore.Auther
	auther  webcore.HTTPAuthenticator
	repo    webcore.RepositoryManager
	crmRepo crm.RepositoryManager
	srv     router.Server[*fiber.App]
	logger  *glog.BaseLogger
}

func (a *App) Config() *BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("webcore"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	cfg.Raw().EnsureDefaults()

	// refuse to boot on broken auth config, a production deployment without a
	// real signing secret must never serve traffic
	if err := webcore.ValidateConfig(cfg.Raw().GetAuth()); err != nil {
		lgr.GetLogger("boot").Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := SeedAdminUser(ctx, app); err != nil {
		lgr.GetLogger("boot").Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	RegisterAPIRoutes(app)
	RegisterPageRoutes(app)

	app.srv.Serve(app.Config().GetServer().Address)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*webcore.User)(nil),
		(*webcore.RefreshToken)(nil),
		(*webcore.SessionRecord)(nil),
		(*crm.Contact)(nil),
		(*crm.Feedback)(nil),
		(*crm.Project)(nil),
		(*crm.Testimonial)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	app.bunDB = db
	app.repo = webcore.NewRepositoryManager(db)
	app.crmRepo = crm.NewRepositoryManager(db)

	if err := app.repo.Validate(); err != nil {
		return err
	}

	return app.crmRepo.Validate()
}

// SeedAdminUser provisions the configured admin account. The id is derived
// from the email so repeated boots converge on the same record.
func SeedAdminUser(ctx context.Context, app *App) error {
	admin := app.Config().GetAdmin()
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	user, err := webcore.RegisterUser(ctx, app.repo, webcore.RegisterUserInput{
		FirstName:       admin.FirstName,
		LastName:        admin.LastName,
		Email:           admin.Email,
		Role:            webcore.RoleAdmin,
		Password:        admin.Password,
		DeterministicID: true,
	})
	if err != nil {
		return err
	}

	app.GetLogger("boot").Info("admin account ready", "user_id", user.ID)
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	vcfg := app.Config().GetViews()

	engine := django.New(vcfg.Dir, vcfg.Extension)
	engine.Reload(vcfg.Reload)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	authCfg := app.Config().GetAuth()

	// every visitor gets a session so the CSRF token has something to bind to
	srv.Router().Use(webcore.SessionMiddleware(authCfg))

	srv.Router().Use(csrf.New(csrf.Config{
		Storage: webcore.NewSessionCSRFStorage(app.repo.Sessions()),
	}))

	csrf.RegisterRoutes(srv.Router())

	app.srv = srv
	return nil
}

// userTrackerAdapter narrows the Users repository to what the provider needs
type userTrackerAdapter struct {
	users webcore.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*webcore.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *webcore.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *webcore.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	userProvider := webcore.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := webcore.NewAuthenticator(userProvider, app.repo.RefreshTokens(), cfg)
	authenticator.WithLogger(app.GetLogger("auth:core"))

	httpAuth, err := webcore.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}

	httpAuth.WithLogger(app.GetLogger("auth:http"))

	app.auth = authenticator
	app.auther = httpAuth

	webcore.RegisterAuthRoutes(app.srv.Router(),
		webcore.WithAuthControllerRepo(app.repo),
		webcore.WithAuthControllerAuther(httpAuth),
		webcore.WithAuthControllerConfig(cfg),
		webcore.WithAuthControllerLogger(app.GetLogger("auth:ctrl")),
	)

	return nil
}

func RegisterAPIRoutes(app *App) {
	cfg := app.Config().GetAuth()

	protected := app.auther.ProtectedRoute(cfg, nil)

	crm.RegisterRoutes(app.srv.Router(), protected,
		crm.WithControllerRepo(app.crmRepo),
		crm.WithControllerLogger(app.GetLogger("crm")),
		crm.WithControllerContextKey(cfg.GetContextKey()),
	)

	chatbot.RegisterRoutes(app.srv.Router(), chatbot.New(chatbot.DefaultRules(), ""))
}

func RegisterPageRoutes(app *App) {
	p := app.srv.Router()
	cfg := app.Config().GetAuth()

	p.Get("/", PageHandler(app, "home", "Veridian Labs"))
	p.Get("/services", PageHandler(app, "services", "Services"))

	p.Get("/projects", func(ctx router.Context) error {
		records, err := app.crmRepo.Projects().ListPublished(ctx.Context())
		if err != nil {
			return renderError(ctx, err)
		}
		return render(ctx, "projects", router.ViewContext{
			"title":    "Projects",
			"projects": records,
		})
	})

	p.Get("/testimonials", func(ctx router.Context) error {
		records, err := app.crmRepo.Testimonials().ListPublished(ctx.Context())
		if err != nil {
			return renderError(ctx, err)
		}
		return render(ctx, "testimonials", router.ViewContext{
			"title":        "Testimonials",
			"testimonials": records,
		})
	})

	protected := app.auther.ProtectedRoute(cfg, nil)

	p.Get("/dashboard", protected(func(ctx router.Context) error {
		principal, err := webcore.GetRouterPrincipal(ctx, cfg.GetContextKey())
		if err != nil {
			return renderError(ctx, err)
		}

		contactRecords, err := app.crmRepo.Contacts().List(ctx.Context(), "", 50, 0)
		if err != nil {
			return renderError(ctx, err)
		}

		return render(ctx, "dashboard", router.ViewContext{
			"title":    "Dashboard",
			"user":     principal,
			"contacts": contactRecords,
		})
	}))
}

func PageHandler(app *App, view, title string) router.HandlerFunc {
	return func(ctx router.Context) error {
		return render(ctx, view, router.ViewContext{
			"title": title,
		})
	}
}

// render merges the CSRF template helpers in so forms and fetch calls can
// pick up the token from the page
func render(ctx router.Context, name string, data router.ViewContext) error {
	for key, value := range csrf.CSRFTemplateHelpers(ctx, "") {
		if _, ok := data[key]; !ok {
			data[key] = value
		}
	}
	return ctx.Render(name, data)
}

func renderError(ctx router.Context, err error) error {
	return ctx.Status(router.StatusInternalServerError).Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
