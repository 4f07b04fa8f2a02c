package librarian

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/goliatone/librarian/middleware/jwtware"
)

// RouteGuard builds the middleware that protects API routes. Token
// validation is delegated to the TokenService so that expiry and
// signature failures surface as the same rich errors the rest of the
// API uses.
type RouteGuard struct {
	cfg    Config
	tokens TokenService
	Logger Logger
}

func NewRouteGuard(tokens TokenService, cfg Config) *RouteGuard {
	return &RouteGuard{
		cfg:    cfg,
		tokens: tokens,
		Logger: defLogger{},
	}
}

func (g *RouteGuard) WithLogger(logger Logger) *RouteGuard {
	if logger != nil {
		g.Logger = logger
	}
	return g
}

// Protected requires a valid access token. Claims are stored in the
// router context under the configured context key and propagated to the
// standard context for downstream consumers.
func (g *RouteGuard) Protected() router.MiddlewareFunc {
	return jwtware.New(g.middlewareConfig(""))
}

// AdminOnly requires a valid access token carrying the ADMIN role.
func (g *RouteGuard) AdminOnly() router.MiddlewareFunc {
	return jwtware.New(g.middlewareConfig(string(RoleAdmin)))
}

func (g *RouteGuard) middlewareConfig(requiredRole string) jwtware.Config {
	return jwtware.Config{
		ErrorHandler: g.errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(g.cfg.GetAccessSigningKey()),
			JWTAlg: "HS256",
		},
		AuthScheme:     g.cfg.GetAuthScheme(),
		ContextKey:     g.cfg.GetContextKey(),
		TokenLookup:    g.cfg.GetTokenLookup(),
		TokenValidator: accessTokenValidator{tokens: g.tokens},
		RequiredRole:   requiredRole,
		RoleChecker:    roleChecker(requiredRole),
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, authClaims)
			}
			return c
		},
	}
}

func (g *RouteGuard) errorHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		// Expired and malformed tokens both map to 401; the category and
		// text code tell them apart in the payload and logs.
		if richErr.Category == goerrors.CategoryAuth {
			g.Logger.Info("rejected access token", "text_code", richErr.TextCode)
		}
		return WriteError(ctx, richErr)
	}

	if err.Error() == jwtware.ErrJWTMissingOrMalformed.Error() {
		return WriteError(ctx, goerrors.New("access token required", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenMalformed).
			WithCode(goerrors.CodeUnauthorized))
	}

	return WriteError(ctx, ErrInsufficientRole)
}

// accessTokenValidator bridges the TokenService into the jwtware
// middleware without an import cycle.
type accessTokenValidator struct {
	tokens TokenService
}

func (v accessTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func roleChecker(requiredRole string) func(jwtware.AuthClaims, string) bool {
	if requiredRole == "" {
		return nil
	}
	return func(claims jwtware.AuthClaims, role string) bool {
		return claims.HasRole(role)
	}
}
