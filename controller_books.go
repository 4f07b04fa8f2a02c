package librarian

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/librarian/ai"
)

// BookCreateRequest payload
type BookCreateRequest struct {
	Title         string     `form:"title" json:"title"`
	Description   string     `form:"description" json:"description"`
	PublishedDate *time.Time `form:"published_date" json:"published_date"`
	AuthorID      string     `form:"author_id" json:"author_id"`
	CategoryID    string     `form:"category_id" json:"category_id"`
	Available     *bool      `form:"available" json:"available"`
}

// Validate will run validation rules
func (r BookCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.AuthorID, validation.Required, is.UUID),
		validation.Field(&r.CategoryID, validation.Required, is.UUID),
	)
}

// BookUpdateRequest payload. Absent fields are left untouched.
type BookUpdateRequest struct {
	Title         *string    `form:"title" json:"title"`
	Description   *string    `form:"description" json:"description"`
	PublishedDate *time.Time `form:"published_date" json:"published_date"`
	AuthorID      *string    `form:"author_id" json:"author_id"`
	CategoryID    *string    `form:"category_id" json:"category_id"`
	Available     *bool      `form:"available" json:"available"`
}

func (a *CatalogController) BookList(ctx router.Context) error {
	records, err := a.Repo.Books().List(ctx.Context())
	if err != nil {
		a.Logger.Error("book list", "error", err)
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, records)
}

func (a *CatalogController) BookShow(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := a.Repo.Books().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) BookCreate(ctx router.Context) error {
	payload := new(BookCreateRequest)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, catalogValidationError(err))
	}

	authorID, _ := uuid.Parse(payload.AuthorID)
	categoryID, _ := uuid.Parse(payload.CategoryID)

	// Referenced records must exist; their names also feed description
	// generation below.
	author, err := a.Repo.Authors().GetByID(ctx.Context(), authorID)
	if err != nil {
		return WriteError(ctx, err)
	}
	category, err := a.Repo.Categories().GetByID(ctx.Context(), categoryID)
	if err != nil {
		return WriteError(ctx, err)
	}

	description := payload.Description
	if description == "" && a.Assistant != nil {
		description = a.Assistant.GenerateBookDescription(ctx.Context(), payload.Title, author.Name, category.Name)
	}

	record := &Book{
		Title:         payload.Title,
		Description:   description,
		PublishedDate: payload.PublishedDate,
		AuthorID:      authorID,
		CategoryID:    categoryID,
		Available:     true,
	}
	if payload.Available != nil {
		record.Available = *payload.Available
	}

	record, err = a.Repo.Books().Create(ctx.Context(), record)
	if err != nil {
		a.Logger.Error("book create", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *CatalogController) BookUpdate(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(BookUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	patch := BookPatch{
		Title:         payload.Title,
		Description:   payload.Description,
		PublishedDate: payload.PublishedDate,
		Available:     payload.Available,
	}

	if payload.AuthorID != nil {
		authorID, err := uuid.Parse(*payload.AuthorID)
		if err != nil {
			return WriteError(ctx, catalogValidationError(err))
		}
		patch.AuthorID = &authorID
	}
	if payload.CategoryID != nil {
		categoryID, err := uuid.Parse(*payload.CategoryID)
		if err != nil {
			return WriteError(ctx, catalogValidationError(err))
		}
		patch.CategoryID = &categoryID
	}

	record, err := a.Repo.Books().Update(ctx.Context(), id, patch)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) BookDelete(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Repo.Books().Delete(ctx.Context(), id); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Book deleted successfully",
	})
}

// BookSummary generates a reader-facing summary for a catalog book. The
// generation is best effort; a degraded response still returns 200.
func (a *CatalogController) BookSummary(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := a.Repo.Books().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}

	summary := ai.FallbackSummary
	if a.Assistant != nil {
		summary = a.Assistant.GenerateBookSummary(
			ctx.Context(),
			record.Title,
			relationName(record.Author),
			relationNameCategory(record.Category),
			record.Description,
		)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"bookId":  record.ID,
		"title":   record.Title,
		"summary": summary,
	})
}

// BookRecommendations suggests three similar titles for a catalog book.
func (a *CatalogController) BookRecommendations(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := a.Repo.Books().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}

	recommendations := []ai.Recommendation{}
	if a.Assistant != nil {
		recommendations = a.Assistant.RecommendSimilarBooks(
			ctx.Context(),
			record.Title,
			relationName(record.Author),
			relationNameCategory(record.Category),
		)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"bookId":          record.ID,
		"title":           record.Title,
		"recommendations": recommendations,
	})
}

func relationName(author *Author) string {
	if author == nil {
		return ""
	}
	return author.Name
}

func relationNameCategory(category *Category) string {
	if category == nil {
		return ""
	}
	return category.Name
}
