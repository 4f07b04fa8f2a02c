package librarian

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthorPatch carries the optional fields of an author update. Nil fields
// are left untouched.
type AuthorPatch struct {
	Name      *string
	Biography *string
	BirthDate *time.Time
}

// CategoryPatch carries the optional fields of a category update.
type CategoryPatch struct {
	Name *string
}

// BookPatch carries the optional fields of a book update.
type BookPatch struct {
	Title         *string
	Description   *string
	PublishedDate *time.Time
	AuthorID      *uuid.UUID
	CategoryID    *uuid.UUID
	Available     *bool
}

// Authors is the catalog repository for authors.
type Authors interface {
	List(ctx context.Context) ([]*Author, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Author, error)
	Create(ctx context.Context, record *Author) (*Author, error)
	Update(ctx context.Context, id uuid.UUID, patch AuthorPatch) (*Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Categories is the catalog repository for categories.
type Categories interface {
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	Create(ctx context.Context, record *Category) (*Category, error)
	Update(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Books is the catalog repository for books. Reads always load the author
// and category relations.
type Books interface {
	List(ctx context.Context) ([]*Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	Create(ctx context.Context, record *Book) (*Book, error)
	Update(ctx context.Context, id uuid.UUID, patch BookPatch) (*Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type authors struct {
	db *bun.DB
}

// NewAuthorsRepository creates a new authors repository.
func NewAuthorsRepository(db *bun.DB) Authors {
	return &authors{db: db}
}

func (r *authors) List(ctx context.Context) ([]*Author, error) {
	var records []*Author
	err := r.db.NewSelect().
		Model(&records).
		Relation("Books").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Author{}
	}
	return records, nil
}

func (r *authors) GetByID(ctx context.Context, id uuid.UUID) (*Author, error) {
	record := &Author{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Books").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "author", id)
	}
	return record, nil
}

func (r *authors) Create(ctx context.Context, record *Author) (*Author, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *authors) Update(ctx context.Context, id uuid.UUID, patch AuthorPatch) (*Author, error) {
	q := r.db.NewUpdate().
		Model((*Author)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", time.Now())

	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Biography != nil {
		q = q.Set("biography = ?", *patch.Biography)
	}
	if patch.BirthDate != nil {
		q = q.Set("birth_date = ?", *patch.BirthDate)
	}

	if err := execOne(ctx, q, "author", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *authors) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.NewDelete().
		Model((*Author)(nil)).
		Where("id = ?", id)
	return execOneDelete(ctx, q, "author", id)
}

type categories struct {
	db *bun.DB
}

// NewCategoriesRepository creates a new categories repository.
func NewCategoriesRepository(db *bun.DB) Categories {
	return &categories{db: db}
}

func (r *categories) List(ctx context.Context) ([]*Category, error) {
	var records []*Category
	err := r.db.NewSelect().
		Model(&records).
		Relation("Books").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Category{}
	}
	return records, nil
}

func (r *categories) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	record := &Category{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Books").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return record, nil
}

func (r *categories) Create(ctx context.Context, record *Category) (*Category, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *categories) Update(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*Category, error) {
	q := r.db.NewUpdate().
		Model((*Category)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", time.Now())

	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}

	if err := execOne(ctx, q, "category", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *categories) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.NewDelete().
		Model((*Category)(nil)).
		Where("id = ?", id)
	return execOneDelete(ctx, q, "category", id)
}

type books struct {
	db *bun.DB
}

// NewBooksRepository creates a new books repository.
func NewBooksRepository(db *bun.DB) Books {
	return &books{db: db}
}

func (r *books) List(ctx context.Context) ([]*Book, error) {
	var records []*Book
	err := r.db.NewSelect().
		Model(&records).
		Relation("Author").
		Relation("Category").
		Order("title ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Book{}
	}
	return records, nil
}

func (r *books) GetByID(ctx context.Context, id uuid.UUID) (*Book, error) {
	record := &Book{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Author").
		Relation("Category").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "book", id)
	}
	return record, nil
}

func (r *books) Create(ctx context.Context, record *Book) (*Book, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *books) Update(ctx context.Context, id uuid.UUID, patch BookPatch) (*Book, error) {
	q := r.db.NewUpdate().
		Model((*Book)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", time.Now())

	if patch.Title != nil {
		q = q.Set("title = ?", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	if patch.PublishedDate != nil {
		q = q.Set("published_date = ?", *patch.PublishedDate)
	}
	if patch.AuthorID != nil {
		q = q.Set("author_id = ?", *patch.AuthorID)
	}
	if patch.CategoryID != nil {
		q = q.Set("category_id = ?", *patch.CategoryID)
	}
	if patch.Available != nil {
		q = q.Set("available = ?", *patch.Available)
	}

	if err := execOne(ctx, q, "book", id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *books) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.NewDelete().
		Model((*Book)(nil)).
		Where("id = ?", id)
	return execOneDelete(ctx, q, "book", id)
}

// notFoundOr maps a no-rows select to the typed not-found error so the
// API layer never inspects driver errors.
func notFoundOr(err error, entity string, id uuid.UUID) error {
	if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"entity": entity,
				"id":     id.String(),
			})
	}
	return err
}

func execOne(ctx context.Context, q *bun.UpdateQuery, entity string, id uuid.UUID) error {
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, entity, id)
}

func execOneDelete(ctx context.Context, q *bun.DeleteQuery, entity string, id uuid.UUID) error {
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, entity, id)
}

func requireAffected(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"entity": entity,
				"id":     id.String(),
			})
	}
	return nil
}
