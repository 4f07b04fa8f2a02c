package librarian_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/librarian"
)

// testConfig implements librarian.Config with deterministic values.
type testConfig struct {
	accessKey  string
	refreshKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessKey:  "access-secret",
		refreshKey: "refresh-secret",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		issuer:     "librarian-test",
	}
}

func (c *testConfig) GetAccessSigningKey() string        { return c.accessKey }
func (c *testConfig) GetRefreshSigningKey() string       { return c.refreshKey }
func (c *testConfig) GetAccessTokenTTL() time.Duration   { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration  { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                  { return c.issuer }
func (c *testConfig) GetContextKey() string              { return "user" }
func (c *testConfig) GetTokenLookup() string             { return "header:Authorization" }
func (c *testConfig) GetAuthScheme() string              { return "Bearer" }

// fakeUsers is an in-memory credential store. The embedded interface
// covers the generic repository surface; only the methods the session
// lifecycle touches are implemented.
type fakeUsers struct {
	librarian.Users
	mu      sync.Mutex
	byEmail map[string]*librarian.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*librarian.User{}}
}

func (f *fakeUsers) Register(ctx context.Context, user *librarian.User) (*librarian.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = librarian.RoleUser
	}
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*librarian.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"email": email})
	}
	return user, nil
}

func (f *fakeUsers) byID(id uuid.UUID) *librarian.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.byEmail {
		if user.ID == id {
			return user
		}
	}
	return nil
}

// fakeRefreshTokens is an in-memory refresh token store. GetByToken
// hydrates the User relation the way the bun repository does with a
// relation join.
type fakeRefreshTokens struct {
	librarian.RefreshTokens
	mu      sync.Mutex
	byToken map[string]*librarian.RefreshToken
	users   *fakeUsers
}

func newFakeRefreshTokens(users *fakeUsers) *fakeRefreshTokens {
	return &fakeRefreshTokens{
		byToken: map[string]*librarian.RefreshToken{},
		users:   users,
	}
}

func (f *fakeRefreshTokens) Store(ctx context.Context, token *librarian.RefreshToken) (*librarian.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	f.byToken[token.Token] = token
	return token, nil
}

func (f *fakeRefreshTokens) GetByToken(ctx context.Context, token string) (*librarian.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.byToken[token]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"token": token})
	}

	if record.User == nil && f.users != nil {
		record.User = f.users.byID(record.UserID)
	}
	return record, nil
}

func (f *fakeRefreshTokens) DeleteByID(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for token, record := range f.byToken {
		if record.ID == id {
			delete(f.byToken, token)
		}
	}
	return nil
}

func (f *fakeRefreshTokens) DeleteByToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byToken, token)
	return nil
}

func (f *fakeRefreshTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byToken)
}

// fakeRepo wires the in-memory stores behind the RepositoryManager
// interface.
type fakeRepo struct {
	librarian.RepositoryManager
	users      *fakeUsers
	tokens     *fakeRefreshTokens
	authors    *fakeAuthors
	categories *fakeCategories
	books      *fakeBooks
}

func newFakeRepo() *fakeRepo {
	users := newFakeUsers()
	authors := newFakeAuthors()
	categories := newFakeCategories()

	return &fakeRepo{
		users:      users,
		tokens:     newFakeRefreshTokens(users),
		authors:    authors,
		categories: categories,
		books:      newFakeBooks(authors, categories),
	}
}

func (f *fakeRepo) Users() librarian.Users                 { return f.users }
func (f *fakeRepo) RefreshTokens() librarian.RefreshTokens { return f.tokens }
func (f *fakeRepo) Authors() librarian.Authors             { return f.authors }
func (f *fakeRepo) Categories() librarian.Categories       { return f.categories }
func (f *fakeRepo) Books() librarian.Books                 { return f.books }
func (f *fakeRepo) Validate() error                        { return nil }

// fakeAuthors is an in-memory Authors repository.
type fakeAuthors struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*librarian.Author
}

func newFakeAuthors() *fakeAuthors {
	return &fakeAuthors{byID: map[uuid.UUID]*librarian.Author{}}
}

func (f *fakeAuthors) List(ctx context.Context) ([]*librarian.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*librarian.Author{}
	for _, record := range f.byID {
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeAuthors) GetByID(ctx context.Context, id uuid.UUID) (*librarian.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"entity": "author", "id": id.String()})
	}
	return record, nil
}

func (f *fakeAuthors) Create(ctx context.Context, record *librarian.Author) (*librarian.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.byID[record.ID] = record
	return record, nil
}

func (f *fakeAuthors) Update(ctx context.Context, id uuid.UUID, patch librarian.AuthorPatch) (*librarian.Author, error) {
	record, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if patch.Name != nil {
		record.Name = *patch.Name
	}
	if patch.Biography != nil {
		record.Biography = *patch.Biography
	}
	if patch.BirthDate != nil {
		record.BirthDate = patch.BirthDate
	}
	return record, nil
}

func (f *fakeAuthors) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byID, id)
	return nil
}

// fakeCategories is an in-memory Categories repository.
type fakeCategories struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*librarian.Category
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{byID: map[uuid.UUID]*librarian.Category{}}
}

func (f *fakeCategories) List(ctx context.Context) ([]*librarian.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*librarian.Category{}
	for _, record := range f.byID {
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeCategories) GetByID(ctx context.Context, id uuid.UUID) (*librarian.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"entity": "category", "id": id.String()})
	}
	return record, nil
}

func (f *fakeCategories) Create(ctx context.Context, record *librarian.Category) (*librarian.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.byID[record.ID] = record
	return record, nil
}

func (f *fakeCategories) Update(ctx context.Context, id uuid.UUID, patch librarian.CategoryPatch) (*librarian.Category, error) {
	record, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if patch.Name != nil {
		record.Name = *patch.Name
	}
	return record, nil
}

func (f *fakeCategories) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byID, id)
	return nil
}

// fakeBooks is an in-memory Books repository. Reads hydrate the author
// and category relations from the sibling fakes.
type fakeBooks struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*librarian.Book
	authors    *fakeAuthors
	categories *fakeCategories
}

func newFakeBooks(authors *fakeAuthors, categories *fakeCategories) *fakeBooks {
	return &fakeBooks{
		byID:       map[uuid.UUID]*librarian.Book{},
		authors:    authors,
		categories: categories,
	}
}

func (f *fakeBooks) hydrate(record *librarian.Book) *librarian.Book {
	if author, ok := f.authors.byID[record.AuthorID]; ok {
		record.Author = author
	}
	if category, ok := f.categories.byID[record.CategoryID]; ok {
		record.Category = category
	}
	return record
}

func (f *fakeBooks) List(ctx context.Context) ([]*librarian.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*librarian.Book{}
	for _, record := range f.byID {
		out = append(out, f.hydrate(record))
	}
	return out, nil
}

func (f *fakeBooks) GetByID(ctx context.Context, id uuid.UUID) (*librarian.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"entity": "book", "id": id.String()})
	}
	return f.hydrate(record), nil
}

func (f *fakeBooks) Create(ctx context.Context, record *librarian.Book) (*librarian.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.byID[record.ID] = record
	return f.hydrate(record), nil
}

func (f *fakeBooks) Update(ctx context.Context, id uuid.UUID, patch librarian.BookPatch) (*librarian.Book, error) {
	record, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if patch.Title != nil {
		record.Title = *patch.Title
	}
	if patch.Description != nil {
		record.Description = *patch.Description
	}
	if patch.PublishedDate != nil {
		record.PublishedDate = patch.PublishedDate
	}
	if patch.AuthorID != nil {
		record.AuthorID = *patch.AuthorID
	}
	if patch.CategoryID != nil {
		record.CategoryID = *patch.CategoryID
	}
	if patch.Available != nil {
		record.Available = *patch.Available
	}
	return f.hydrate(record), nil
}

func (f *fakeBooks) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byID, id)
	return nil
}
