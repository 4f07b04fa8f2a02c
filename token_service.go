package librarian

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface. Access and
// refresh tokens are signed with separate secrets so a leaked access
// secret never validates refresh credentials.
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, mostly for tests.
func (ts *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

// RefreshTTL exposes the configured refresh lifetime so the session
// manager can stamp the stored expiry from the same value.
func (ts *TokenServiceImpl) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccessToken mints a short-lived access token with the identity's
// id, email, and role.
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UID:       identity.ID(),
		UserEmail: identity.Email(),
		UserRole:  identity.Role(),
	}

	return ts.sign(claims, ts.accessKey)
}

// IssueRefreshToken mints a long-lived refresh token carrying only the
// user id.
func (ts *TokenServiceImpl) IssueRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", goerrors.New("user id is required", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
		UID: userID,
	}

	return ts.sign(claims, ts.refreshKey)
}

func (ts *TokenServiceImpl) sign(claims jwt.Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// ValidateAccessToken parses and validates an access token, returning
// structured claims.
func (ts *TokenServiceImpl) ValidateAccessToken(tokenString string) (AuthClaims, error) {
	token, err := ts.parse(tokenString, &AccessClaims{}, ts.accessKey)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate access claims")
	return nil, ErrTokenMalformed
}

// Validate satisfies the jwtware TokenValidator contract using the
// access secret.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	return ts.ValidateAccessToken(tokenString)
}

// ValidateRefreshToken parses and validates a refresh token against the
// refresh secret.
func (ts *TokenServiceImpl) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := ts.parse(tokenString, &RefreshClaims{}, ts.refreshKey)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*RefreshClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate refresh claims")
	return nil, ErrTokenMalformed
}

func (ts *TokenServiceImpl) parse(tokenString string, claims jwt.Claims, key []byte) (*jwt.Token, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	return token, nil
}
