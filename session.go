package librarian

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RegisterMessage is the payload consumed by Register.
type RegisterMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (e RegisterMessage) Type() string { return "session.register" }

// LoginResult carries both freshly minted tokens plus the public user.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

// SessionManager orchestrates the session lifecycle: register, login,
// refresh, and logout. Refresh tokens move through three states: issued
// at login, revoked by logout (row deleted), or expired. Expiry is
// detected lazily at refresh time by comparing the stored timestamp, and
// only then is the signed claim verified.
type SessionManager struct {
	repo   RepositoryManager
	tokens *TokenServiceImpl
	logger Logger
	now    func() time.Time
}

var _ SessionLifecycle = (*SessionManager)(nil)

// NewSessionManager returns a new SessionManager
func NewSessionManager(repo RepositoryManager, tokens *TokenServiceImpl) *SessionManager {
	return &SessionManager{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock overrides the time source, mostly for tests.
func (s *SessionManager) WithClock(now func() time.Time) *SessionManager {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates a new account. The role defaults to USER; the password
// is never stored, only its hash.
func (s *SessionManager) Register(ctx context.Context, msg RegisterMessage) (*User, error) {
	email := strings.TrimSpace(msg.Email)
	if email == "" || msg.Password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := s.repo.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Role:         DefaultRole(msg.Role),
	}

	record, err := s.repo.Users().Register(ctx, user)
	if err != nil {
		// A concurrent registration can slip past the availability check;
		// the store's uniqueness constraint is the source of truth.
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
			return nil, ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user")
	}

	return record, nil
}

// Login verifies credentials and issues both token families, persisting
// the refresh token so it can be revoked later. An unknown email and a
// wrong password produce the same error.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(NewIdentityFromUser(user))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	record := &RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.tokens.RefreshTTL()),
	}

	if _, err := s.repo.RefreshTokens().Store(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is left untouched; there is no rotation. The
// stored expiry timestamp is authoritative and checked before the signed
// claim, and an expired row is deleted on detection so a retry fails as
// not-found.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenMissing
	}

	stored, err := s.repo.RefreshTokens().GetByToken(ctx, refreshToken)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrRefreshTokenInvalid
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up refresh token")
	}

	if stored.Expired(s.now()) {
		if err := s.repo.RefreshTokens().DeleteByID(ctx, stored.ID); err != nil {
			s.logger.Error("failed to delete expired refresh token", "error", err)
		}
		return "", ErrRefreshTokenExpired
	}

	if _, err := s.tokens.ValidateRefreshToken(refreshToken); err != nil {
		s.logger.Info("refresh token failed verification", "error", err)
		return "", ErrRefreshTokenInvalid
	}

	if stored.User == nil {
		return "", goerrors.New("refresh token has no associated user", goerrors.CategoryInternal)
	}

	accessToken, err := s.tokens.IssueAccessToken(NewIdentityFromUser(stored.User))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	return accessToken, nil
}

// Logout revokes the supplied refresh token. Unknown or already revoked
// tokens are not an error; calling Logout twice succeeds both times.
func (s *SessionManager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.repo.RefreshTokens().DeleteByToken(ctx, refreshToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete refresh token")
	}

	return nil
}
