// Package config holds the service configuration, loaded through a
// go-config container from config/app.json and its overlays.
package config

import (
	"context"
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	gconfig "github.com/goliatone/go-config/config"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"

	auth "github.com/goliatone/go-tours-auth"
)

const devJWTSecret = "dev-only-signing-secret-change-me-please"

type BaseConfig struct {
	Env         string      `koanf:"env" json:"env"`
	Server      Server      `koanf:"server" json:"server"`
	Persistence Persistence `koanf:"persistence" json:"persistence"`
	Logger      Logger      `koanf:"logger" json:"logger"`
	Auth        Auth        `koanf:"auth" json:"auth"`
	SMTP        SMTP        `koanf:"smtp" json:"smtp"`
	AMQP        AMQP        `koanf:"amqp" json:"amqp"`

	publicURL *url.URL
}

type Server struct {
	Addr      string `koanf:"addr" json:"addr"`
	PublicURL string `koanf:"public_url" json:"public_url"`
}

type Persistence struct {
	DSN   string `koanf:"dsn" json:"dsn"`
	Debug bool   `koanf:"debug" json:"debug"`
}

type Logger struct {
	Level string `koanf:"level" json:"level"`
	JSON  bool   `koanf:"json" json:"json"`
}

type Auth struct {
	SigningKey       string `koanf:"signing_key" json:"signing_key"`
	Issuer           string `koanf:"issuer" json:"issuer"`
	TokenExpiration  int    `koanf:"token_expiration" json:"token_expiration"`
	CookieName       string `koanf:"cookie_name" json:"cookie_name"`
	CookieExpiration int    `koanf:"cookie_expiration" json:"cookie_expiration"`
	TokenLookup      string `koanf:"token_lookup" json:"token_lookup"`
	AuthScheme       string `koanf:"auth_scheme" json:"auth_scheme"`
	UseHashIDs       bool   `koanf:"use_hashids" json:"use_hashids"`
}

type SMTP struct {
	Host      string `koanf:"host" json:"host"`
	Port      int    `koanf:"port" json:"port"`
	Username  string `koanf:"username" json:"username"`
	Password  string `koanf:"password" json:"-"`
	TLSMode   string `koanf:"tls_mode" json:"tls_mode"`
	FromName  string `koanf:"from_name" json:"from_name"`
	FromEmail string `koanf:"from_email" json:"from_email"`
}

type AMQP struct {
	URL      string `koanf:"url" json:"-"`
	Exchange string `koanf:"exchange" json:"exchange"`
}

var _ auth.Config = (*BaseConfig)(nil)

// Defaults returns the configuration used when a value is not provided
func Defaults() *BaseConfig {
	return &BaseConfig{
		Env:    "dev",
		Server: Server{Addr: "127.0.0.1:8080"},
		Logger: Logger{Level: "info"},
		Auth: Auth{
			Issuer:           "tours",
			TokenExpiration:  24 * 90,
			CookieName:       "jwt",
			CookieExpiration: 90,
			AuthScheme:       "Bearer",
		},
		SMTP: SMTP{
			Port:      587,
			TLSMode:   "starttls",
			FromEmail: "no-reply@tours.local",
		},
		AMQP: AMQP{Exchange: "auth.activity"},
	}
}

// Load reads the configuration into a container seeded with Defaults
func Load(ctx context.Context, logger glog.Logger) (*gconfig.Container[*BaseConfig], error) {
	cfg := gconfig.New(Defaults()).
		WithLogger(logger)

	if err := cfg.Load(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to load configuration")
	}

	if err := cfg.Raw().Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills derived values and checks the configuration. It is safe
// to call more than once.
func (c *BaseConfig) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = "dev"
	}
	c.SMTP.TLSMode = strings.ToLower(strings.TrimSpace(c.SMTP.TLSMode))

	if !c.IsProd() {
		if c.Persistence.DSN == "" {
			c.Persistence.DSN = "file:tours.db?cache=shared"
		}
		if c.Server.PublicURL == "" {
			c.Server.PublicURL = "http://" + c.Server.Addr
		}
		if c.Auth.SigningKey == "" {
			c.Auth.SigningKey = devJWTSecret
		}
	}

	if c.Auth.TokenLookup == "" && c.Auth.CookieName != "" {
		c.Auth.TokenLookup = "header:Authorization,cookie:" + c.Auth.CookieName
	}

	prod := c.IsProd()
	err := validation.Errors{
		"env": validation.Validate(c.Env, validation.In("dev", "test", "prod")),
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Addr, validation.Required),
			validation.Field(&c.Server.PublicURL, validation.By(absoluteHTTPURL), requiredWhen(prod)),
		),
		"persistence": validation.ValidateStruct(&c.Persistence,
			validation.Field(&c.Persistence.DSN, requiredWhen(prod)),
		),
		"auth": validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.SigningKey, validation.Required, validation.Length(32, 0)),
			validation.Field(&c.Auth.Issuer, validation.Required),
			validation.Field(&c.Auth.TokenExpiration, validation.Required, validation.Min(1)),
			validation.Field(&c.Auth.CookieName, validation.Required),
			validation.Field(&c.Auth.CookieExpiration, validation.Required, validation.Min(1)),
			validation.Field(&c.Auth.AuthScheme, validation.Required),
		),
		"smtp": validation.ValidateStruct(&c.SMTP,
			validation.Field(&c.SMTP.Host, requiredWhen(prod)),
			validation.Field(&c.SMTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.SMTP.TLSMode, validation.In("starttls", "tls", "none")),
		),
	}.Filter()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}

	c.publicURL = nil
	if c.Server.PublicURL != "" {
		c.publicURL, _ = url.Parse(c.Server.PublicURL)
	}

	return nil
}

// requiredWhen must be the last rule of a field
func requiredWhen(cond bool) validation.Rule {
	if cond {
		return validation.Required
	}
	return validation.Skip
}

func absoluteHTTPURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return errors.New("must be an absolute URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	return nil
}

func (c *BaseConfig) IsProd() bool { return c.Env == "prod" }

func (c *BaseConfig) GetServer() Server { return c.Server }

func (c *BaseConfig) GetPersistence() Persistence { return c.Persistence }

func (c *BaseConfig) GetLogger() Logger { return c.Logger }

func (c *BaseConfig) GetSMTP() SMTP { return c.SMTP }

func (c *BaseConfig) GetAMQP() AMQP { return c.AMQP }

func (c *BaseConfig) GetSigningKey() string { return c.Auth.SigningKey }

func (c *BaseConfig) GetIssuer() string { return c.Auth.Issuer }

func (c *BaseConfig) GetTokenExpiration() int { return c.Auth.TokenExpiration }

func (c *BaseConfig) GetCookieName() string { return c.Auth.CookieName }

func (c *BaseConfig) GetCookieExpiration() int { return c.Auth.CookieExpiration }

// GetSecureCookie is true in prod or when served over https
func (c *BaseConfig) GetSecureCookie() bool {
	if c.IsProd() {
		return true
	}
	return c.publicURL != nil && c.publicURL.Scheme == "https"
}

func (c *BaseConfig) GetTokenLookup() string { return c.Auth.TokenLookup }

func (c *BaseConfig) GetAuthScheme() string { return c.Auth.AuthScheme }

func (c *BaseConfig) GetPublicURL() string {
	if c.publicURL == nil {
		return ""
	}
	return strings.TrimRight(c.publicURL.String(), "/")
}
