package librarian

import (
	stderrors "errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the session lifecycle endpoints. The logout
// and profile routes require a valid access token; everything else is
// public.
func RegisterAuthRoutes[T any](app router.Router[T], guard *RouteGuard, opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")

	app.Post(controller.Routes.Logout, controller.LogoutPost, guard.Protected()).
		SetName("auth.logout")

	app.Get(controller.Routes.Profile, controller.ProfileGet, guard.Protected()).
		SetName("auth.profile")
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
	Profile  string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Sessions   SessionLifecycle
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithSessionLifecycle(sessions SessionLifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithAuthContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Logout:   "/auth/logout",
			Profile:  "/auth/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionLifecycle in auth controller...")
	}

	return c
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Role, validation.In(string(RoleUser), string(RoleAdmin))),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register: parse payload", "error", err)
		return WriteError(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register: validate payload", "error", err)
		return WriteError(ctx, credentialsValidationError(err))
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	user, err := a.Sessions.Register(ctx.Context(), RegisterMessage{
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		a.Logger.Error("register: create user", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user.Public(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login: parse payload", "error", err)
		return WriteError(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return WriteError(ctx, credentialsValidationError(err))
	}

	result, err := a.Sessions.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("login rejected", "email", payload.Email)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message":      "Login successful",
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.User.Public(),
	})
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refreshToken" json:"refreshToken"`
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("refresh: parse payload", "error", err)
		return WriteError(ctx, bindError(err))
	}

	accessToken, err := a.Sessions.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"accessToken": accessToken,
	})
}

// LogoutRequest payload
type LogoutRequest struct {
	RefreshToken string `form:"refreshToken" json:"refreshToken"`
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	payload := new(LogoutRequest)

	// A missing or empty body is fine; logout without a refresh token is
	// still a successful logout.
	if err := ctx.Bind(payload); err != nil {
		payload.RefreshToken = ""
	}

	if err := a.Sessions.Logout(ctx.Context(), payload.RefreshToken); err != nil {
		a.Logger.Error("logout: revoke token", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Logged out successfully",
	})
}

func (a *AuthController) ProfileGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return WriteError(ctx, goerrors.New("no session in request context", goerrors.CategoryAuth).
			WithTextCode(TextCodeTokenMalformed).
			WithCode(goerrors.CodeUnauthorized))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": map[string]any{
			"userId": claims.UserID(),
			"email":  claims.Email(),
			"role":   claims.Role(),
		},
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for error payload metadata.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			out[field] = fieldErr.Error()
		}
		return out
	}
	out["payload"] = err.Error()
	return out
}

func bindError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
		WithCode(goerrors.CodeBadRequest)
}

func credentialsValidationError(err error) *goerrors.Error {
	return goerrors.New("email and password are required", goerrors.CategoryValidation).
		WithTextCode(TextCodeMissingCredentials).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": FormatValidationErrorToMap(err)})
}
