package librarian

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/librarian/ai"
)

// BookAssistant generates best-effort catalog copy. All methods degrade
// to fallback values instead of returning errors.
type BookAssistant interface {
	GenerateBookDescription(ctx context.Context, title, authorName, categoryName string) string
	GenerateBookSummary(ctx context.Context, title, authorName, categoryName, description string) string
	RecommendSimilarBooks(ctx context.Context, title, authorName, categoryName string) []ai.Recommendation
}

// CatalogController serves the books, authors, and categories resources.
// Reads are public; writes require the ADMIN role.
type CatalogController struct {
	Logger    Logger
	Repo      RepositoryManager
	Assistant BookAssistant
}

type CatalogControllerOption func(*CatalogController) *CatalogController

func WithCatalogLogger(logger Logger) CatalogControllerOption {
	return func(c *CatalogController) *CatalogController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithCatalogRepo(repo RepositoryManager) CatalogControllerOption {
	return func(c *CatalogController) *CatalogController {
		c.Repo = repo
		return c
	}
}

// WithBookAssistant wires the text-generation collaborator. Optional;
// without it the summary and recommendation endpoints serve fallbacks.
func WithBookAssistant(assistant BookAssistant) CatalogControllerOption {
	return func(c *CatalogController) *CatalogController {
		c.Assistant = assistant
		return c
	}
}

func NewCatalogController(opts ...CatalogControllerOption) *CatalogController {
	c := &CatalogController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in catalog controller...")
	}

	return c
}

// RegisterCatalogRoutes mounts the catalog resources.
func RegisterCatalogRoutes[T any](app router.Router[T], guard *RouteGuard, opts ...CatalogControllerOption) {

	controller := NewCatalogController(opts...)

	app.Get("/books", controller.BookList).SetName("books.list")
	app.Get("/books/:id", controller.BookShow).SetName("books.show")
	app.Post("/books", controller.BookCreate, guard.AdminOnly()).SetName("books.create")
	app.Put("/books/:id", controller.BookUpdate, guard.AdminOnly()).SetName("books.update")
	app.Delete("/books/:id", controller.BookDelete, guard.AdminOnly()).SetName("books.delete")

	app.Post("/books/:id/summary", controller.BookSummary, guard.Protected()).
		SetName("books.summary")
	app.Post("/books/:id/recommendations", controller.BookRecommendations, guard.Protected()).
		SetName("books.recommendations")

	app.Get("/authors", controller.AuthorList).SetName("authors.list")
	app.Get("/authors/:id", controller.AuthorShow).SetName("authors.show")
	app.Post("/authors", controller.AuthorCreate, guard.AdminOnly()).SetName("authors.create")
	app.Put("/authors/:id", controller.AuthorUpdate, guard.AdminOnly()).SetName("authors.update")
	app.Delete("/authors/:id", controller.AuthorDelete, guard.AdminOnly()).SetName("authors.delete")

	app.Get("/categories", controller.CategoryList).SetName("categories.list")
	app.Get("/categories/:id", controller.CategoryShow).SetName("categories.show")
	app.Post("/categories", controller.CategoryCreate, guard.AdminOnly()).SetName("categories.create")
	app.Put("/categories/:id", controller.CategoryUpdate, guard.AdminOnly()).SetName("categories.update")
	app.Delete("/categories/:id", controller.CategoryDelete, guard.AdminOnly()).SetName("categories.delete")
}

// idParam parses the :id route parameter.
func idParam(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid id parameter").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}
