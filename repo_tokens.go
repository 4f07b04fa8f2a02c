package librarian

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists issued refresh credentials. Rows are only ever
// created at login and removed at logout or on lazy expiry detection.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	Store(ctx context.Context, token *RefreshToken) (*RefreshToken, error)
	StoreTx(ctx context.Context, tx bun.IDB, token *RefreshToken) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var (
	_ RefreshTokens                        = (*refreshTokens)(nil)
	_ repository.Repository[*RefreshToken] = (*refreshTokens)(nil)
)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(t *RefreshToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RefreshToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *refreshTokens) Store(ctx context.Context, token *RefreshToken) (*RefreshToken, error) {
	return r.StoreTx(ctx, r.db, token)
}

func (r *refreshTokens) StoreTx(ctx context.Context, tx bun.IDB, token *RefreshToken) (*RefreshToken, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	record, err := r.Repository.CreateTx(ctx, tx, token)
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not persist refresh token")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist refresh token")
	}

	return record, nil
}

// GetByToken loads a stored token by its opaque value, including the
// owning user for claim re-issuance.
func (r *refreshTokens) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *refreshTokens) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteByToken removes every row matching the token value. Deleting a
// token that is not stored is not an error; logout stays idempotent.
func (r *refreshTokens) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

// DeleteExpired prunes tokens whose stored expiry predates the cutoff.
func (r *refreshTokens) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
