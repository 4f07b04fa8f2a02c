package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree, loaded from
// config/app.json with environment overrides.
type BaseConfig struct {
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	AI          AI          `json:"ai" koanf:"ai"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth.AccessSigningKey == "" || a.Auth.RefreshSigningKey == "" {
		return fmt.Errorf("auth signing keys are required")
	}
	if a.Auth.AccessSigningKey == a.Auth.RefreshSigningKey {
		return fmt.Errorf("access and refresh signing keys must differ")
	}
	return nil
}

func (a *BaseConfig) GetServer() *Server           { return &a.Server }
func (a *BaseConfig) GetAuth() *Auth               { return &a.Auth }
func (a *BaseConfig) GetPersistence() *Persistence { return &a.Persistence }
func (a *BaseConfig) GetAI() *AI                   { return &a.AI }

type Server struct {
	Address string `json:"address" koanf:"address"`
}

func (s *Server) GetAddress() string {
	if s.Address == "" {
		return ":3000"
	}
	return s.Address
}

// Auth implements the librarian.Config interface.
type Auth struct {
	AccessSigningKey     string `json:"access_signing_key" koanf:"access_signing_key"`
	RefreshSigningKey    string `json:"refresh_signing_key" koanf:"refresh_signing_key"`
	AccessTTLExpression  string `json:"access_ttl" koanf:"access_ttl"`
	RefreshTTLExpression string `json:"refresh_ttl" koanf:"refresh_ttl"`
	Issuer               string `json:"issuer" koanf:"issuer"`
	ContextKey           string `json:"context_key" koanf:"context_key"`
	TokenLookup          string `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme           string `json:"auth_scheme" koanf:"auth_scheme"`
}

func (a *Auth) GetAccessSigningKey() string  { return a.AccessSigningKey }
func (a *Auth) GetRefreshSigningKey() string { return a.RefreshSigningKey }

func (a *Auth) GetAccessTokenTTL() time.Duration {
	return parseDurationOr(a.AccessTTLExpression, 15*time.Minute)
}

func (a *Auth) GetRefreshTokenTTL() time.Duration {
	return parseDurationOr(a.RefreshTTLExpression, 7*24*time.Hour)
}

func (a *Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "librarian"
	}
	return a.Issuer
}

func (a *Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a *Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a *Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p *Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p *Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file:librarian.db?cache=shared&mode=rwc"
	}
	return p.DSN
}

func (p *Persistence) GetDebug() bool { return p.Debug }

func (p *Persistence) GetPingTimeout() time.Duration {
	return parseDurationOr(p.PingTimeoutExpression, 5*time.Second)
}

type AI struct {
	APIKey  string `json:"api_key" koanf:"api_key"`
	BaseURL string `json:"base_url" koanf:"base_url"`
	Model   string `json:"model" koanf:"model"`
}

func (a *AI) GetAPIKey() string  { return a.APIKey }
func (a *AI) GetBaseURL() string { return a.BaseURL }
func (a *AI) GetModel() string   { return a.Model }

func parseDurationOr(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(fmt.Sprintf("unable to parse duration expression: %s", expr))
	}
	return dur
}
