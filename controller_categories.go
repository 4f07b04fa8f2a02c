package librarian

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"
)

// CategoryCreateRequest payload
type CategoryCreateRequest struct {
	Name string `form:"name" json:"name"`
}

// Validate will run validation rules
func (r CategoryCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CategoryUpdateRequest payload
type CategoryUpdateRequest struct {
	Name *string `form:"name" json:"name"`
}

func (a *CatalogController) CategoryList(ctx router.Context) error {
	records, err := a.Repo.Categories().List(ctx.Context())
	if err != nil {
		a.Logger.Error("category list", "error", err)
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, records)
}

func (a *CatalogController) CategoryShow(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	record, err := a.Repo.Categories().GetByID(ctx.Context(), id)
	if err != nil {
		return WriteError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) CategoryCreate(ctx router.Context) error {
	payload := new(CategoryCreateRequest)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, catalogValidationError(err))
	}

	record, err := a.Repo.Categories().Create(ctx.Context(), &Category{
		Name: payload.Name,
	})
	if err != nil {
		a.Logger.Error("category create", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *CatalogController) CategoryUpdate(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(CategoryUpdateRequest)
	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, bindError(err))
	}

	record, err := a.Repo.Categories().Update(ctx.Context(), id, CategoryPatch{
		Name: payload.Name,
	})
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *CatalogController) CategoryDelete(ctx router.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	if err := a.Repo.Categories().Delete(ctx.Context(), id); err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Category deleted successfully",
	})
}
