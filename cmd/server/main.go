package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-tours-auth"
	"github.com/goliatone/go-tours-auth/config"
	"github.com/goliatone/go-tours-auth/logging"
	"github.com/goliatone/go-tours-auth/mailer"
	"github.com/goliatone/go-tours-auth/persistence"
	"github.com/goliatone/go-tours-auth/sinks/amqpsink"
)

type App struct {
	config    *gconfig.Container[*config.BaseConfig]
	logger    *glog.BaseLogger
	db        *bun.DB
	repo      auth.RepositoryManager
	lifecycle *auth.Lifecycle
	auther    *auth.RouteAuthenticator
	sink      *amqpsink.Sink
	srv       *fiber.App
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// AuthLogger returns a named logger for the auth components
func (a *App) AuthLogger(name string) auth.Logger {
	return logging.Printf(a.GetLogger(name))
}

func main() {
	lgr := logging.New("tours", "debug", false)

	ctx := context.Background()

	cfg, err := config.Load(ctx, lgr.GetLogger("config"))
	if err != nil {
		panic(err)
	}

	logCfg := cfg.Raw().GetLogger()

	app := &App{
		config: cfg,
		logger: logging.New("tours", logCfg.Level, logCfg.JSON),
	}

	logger := app.GetLogger("app")

	if err := WithPersistence(ctx, app); err != nil {
		logger.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	if err := WithActivitySink(ctx, app); err != nil {
		logger.Error("activity sink setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithLifecycle(ctx, app); err != nil {
		logger.Error("lifecycle setup failed", "error", err)
		os.Exit(1)
	}

	WithHTTPServer(app)

	addr := app.Config().GetServer().Addr
	go func() {
		logger.Info("listening", "addr", addr, "env", app.Config().Env)
		if err := app.srv.Listen(addr); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	logger.Info("shutting down", "signal", sig.String())

	if err := app.srv.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	if app.sink != nil {
		if err := app.sink.Close(); err != nil {
			logger.Warn("activity sink close failed", "error", err)
		}
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.Config().GetPersistence()
	db, err := persistence.Open(persistence.Options{
		DSN:   cfg.DSN,
		Debug: cfg.Debug,
	})
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	if err := persistence.Migrate(ctx, db); err != nil {
		db.Close()
		return err
	}

	app.db = db
	app.repo = auth.NewRepositoryManager(db)
	app.repo.MustValidate()

	return nil
}

func WithActivitySink(_ context.Context, app *App) error {
	cfg := app.Config().GetAMQP()
	if cfg.URL == "" {
		return nil
	}

	sink, err := amqpsink.Dial(cfg.URL,
		amqpsink.WithExchange(cfg.Exchange),
		amqpsink.WithLogger(app.AuthLogger("activity")),
	)
	if err != nil {
		return err
	}

	app.sink = sink
	return nil
}

func WithLifecycle(_ context.Context, app *App) error {
	cfg := app.Config()
	smtp := cfg.GetSMTP()

	var mail auth.Mailer
	if smtp.Host != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPSettings{
			Host:      smtp.Host,
			Port:      smtp.Port,
			Username:  smtp.Username,
			Password:  smtp.Password,
			TLSMode:   smtp.TLSMode,
			FromName:  smtp.FromName,
			FromEmail: smtp.FromEmail,
		})
	} else {
		app.GetLogger("mailer").Warn("no SMTP host configured, emails are written to the log")
		mail = mailer.NewLogMailer(app.AuthLogger("mailer"))
	}

	tokens := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		app.AuthLogger("tokens"),
	)

	notifier := auth.NewNotifier(mail, cfg.GetPublicURL(), app.AuthLogger("notifier"))

	opts := []auth.LifecycleOption{
		auth.WithLifecycleLogger(app.AuthLogger("lifecycle")),
	}
	if cfg.Auth.UseHashIDs {
		opts = append(opts, auth.WithHashIDs())
	}
	if app.sink != nil {
		opts = append(opts, auth.WithLifecycleActivitySink(app.sink))
	}

	app.lifecycle = auth.NewLifecycle(app.repo, tokens, notifier, opts...)

	guard := auth.NewGuard(tokens, app.repo.Accounts(), app.AuthLogger("guard"))
	app.auther = auth.NewHTTPAuthenticator(guard, cfg)
	app.auther.Logger = app.AuthLogger("http")

	return nil
}

func WithHTTPServer(app *App) {
	httpLogger := app.AuthLogger("http")

	srv := fiber.New(fiber.Config{
		AppName:               "tours-auth",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{
					"status":  "fail",
					"message": fe.Message,
				})
			}
			return auth.WriteError(c, httpLogger, err)
		},
	})

	controller := auth.NewUserController(app.lifecycle, app.auther, app.repo,
		auth.WithControllerLogger(httpLogger),
	)
	auth.RegisterRoutes(srv, controller)

	app.srv = srv
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
