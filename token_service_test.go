package librarian_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/librarian"
)

type staticIdentity struct {
	id    string
	email string
	role  string
}

func (s staticIdentity) ID() string    { return s.id }
func (s staticIdentity) Email() string { return s.email }
func (s staticIdentity) Role() string  { return s.role }

func newTokenService(now time.Time) *librarian.TokenServiceImpl {
	return librarian.NewTokenService(newTestConfig(), nil).
		WithClock(func() time.Time { return now })
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokenService(now)

	identity := staticIdentity{
		id:    "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		email: "reader@example.com",
		role:  "ADMIN",
	}

	tokenString, err := tokens.IssueAccessToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tokens.ValidateAccessToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.email, claims.Email())
	assert.Equal(t, identity.role, claims.Role())
	assert.True(t, claims.HasRole("ADMIN"))
	assert.False(t, claims.HasRole("USER"))
	assert.Equal(t, now.Unix(), claims.IssuedAt().Unix())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.Expires().Unix())
}

func TestTokenService_RefreshTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokenService(now)

	tokenString, err := tokens.IssueRefreshToken("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	require.NoError(t, err)

	claims, err := tokens.ValidateRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", claims.UserID())
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenService_RejectsEmptyInputs(t *testing.T) {
	tokens := newTokenService(time.Now())

	_, err := tokens.IssueAccessToken(nil)
	assert.Error(t, err)

	_, err = tokens.IssueRefreshToken("")
	assert.Error(t, err)
}

func TestTokenService_SecretsAreNotInterchangeable(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokenService(now)

	accessToken, err := tokens.IssueAccessToken(staticIdentity{id: "user-1", role: "USER"})
	require.NoError(t, err)

	refreshToken, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)

	t.Run("refresh secret does not validate access tokens", func(t *testing.T) {
		_, err := tokens.ValidateRefreshToken(accessToken)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, librarian.TextCodeTokenMalformed, richErr.TextCode)
	})

	t.Run("access secret does not validate refresh tokens", func(t *testing.T) {
		_, err := tokens.ValidateAccessToken(refreshToken)
		require.Error(t, err)
	})
}

func TestTokenService_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokenService(now)

	tokenString, err := tokens.IssueAccessToken(staticIdentity{id: "user-1", role: "USER"})
	require.NoError(t, err)

	later := librarian.NewTokenService(newTestConfig(), nil).
		WithClock(func() time.Time { return now.Add(16 * time.Minute) })

	_, err = later.ValidateAccessToken(tokenString)
	require.ErrorIs(t, err, librarian.ErrTokenExpired)
}

func TestTokenService_MalformedToken(t *testing.T) {
	tokens := newTokenService(time.Now())

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1In0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.ValidateAccessToken(tc.token)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, librarian.TextCodeTokenMalformed, richErr.TextCode)
		})
	}
}

func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	foreignCfg := newTestConfig()
	foreignCfg.issuer = "someone-else"
	foreign := librarian.NewTokenService(foreignCfg, nil).
		WithClock(func() time.Time { return now })

	tokenString, err := foreign.IssueAccessToken(staticIdentity{id: "user-1", role: "USER"})
	require.NoError(t, err)

	tokens := newTokenService(now)
	_, err = tokens.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}

func TestTokenService_RejectsUnexpectedSigningMethod(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokenService(now)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "librarian-test",
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}
