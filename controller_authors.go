package librarian

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// AuthorCreateRequest payload
type AuthorCreateRequest struct {
	Name      string     `form:"name" json:"name"`
	Biography string     `form:"biography" json:"biography"`
	BirthDate *time.Time `form:"birth_date" json:"birth_date"`
}

// Validate will run validation rules
func (r AuthorCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// AuthorUpdateRequest payload. Absent fields are left untouched.
type AuthorUpdateRequest struct {
	Name      *string    `form:"name" json:"name"`
	Biography *string    `form:"biography" json:"biography"`
	BirthDate *time.Time `form:"birth_date" json:"birth_date"`
}

func (a *CatalogController) AuthorList(ctx router.Context) error {
	records, err := a.Repo.Authors().List(ctx.Context())
	if err != nil {
		a.Logger.Error("author list", "error", err)
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, records)
}

func (a *CatalogController) AuthorShow(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := a.Repo.Authors().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) AuthorCreate(ctx router.Context) error {
	payload := new(AuthorCreateRequest)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, catalogValidationError(err))
	}

	record, err := a.Repo.Authors().Create(ctx.Context(), &Author{
		Name:      payload.Name,
		Biography: payload.Biography,
		BirthDate: payload.BirthDate,
	})
	if err != nil {
		a.Logger.Error("author create", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *CatalogController) AuthorUpdate(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(AuthorUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	record, err := a.Repo.Authors().Update(ctx.Context(), id, AuthorPatch{
		Name:      payload.Name,
		Biography: payload.Biography,
		BirthDate: payload.BirthDate,
	})
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) AuthorDelete(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Repo.Authors().Delete(ctx.Context(), id); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Author deleted successfully",
	})
}

func catalogValidationError(err error) *goerrors.Error {
	return goerrors.New("invalid payload", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": FormatValidationErrorToMap(err)})
}
