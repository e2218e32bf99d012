package auth

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	Impersonate(c router.Context, identifier string) error
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// GetRouterSession reads the validated claims the token middleware stored
// in the router context.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := raw.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

// AuthResponse is the success envelope for the auth endpoints.
type AuthResponse struct {
	Success bool        `json:"success"`
	User    *PublicUser `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.AuthErrorHandler(),
	)

	app.
		Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Handle(router.HTTPMethod("OPTIONS"), controller.Routes.Login, controller.LoginPreflight).
		SetName("auth.login.preflight")

	app.
		Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout")

	app.
		Post(controller.Routes.Verify, controller.VerifyPost, protected).
		SetName("auth.verify")

	app.
		Get(controller.Routes.Me, controller.MeGet, protected).
		SetName("auth.me")

	app.
		Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("auth.pwd-reset")

	app.
		Post(fmt.Sprintf("%s/:uuid", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("auth.pwd-reset.do")
}

type AuthControllerRoutes struct {
	Login         string
	Logout        string
	Register      string
	Verify        string
	Me            string
	PasswordReset string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Resolver     *SessionResolver
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:         "/auth/login",
			Logout:        "/auth/logout",
			Register:      "/auth/register",
			Verify:        "/auth/verify",
			Me:            "/auth/me",
			PasswordReset: "/auth/password-reset",
		},
	}

	c.ErrorHandler = WriteErrorResponse

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Resolver == nil {
		validator := NewTokenService(
			[]byte(c.Config.GetSigningKey()),
			c.Config.GetTokenExpiration(),
			c.Config.GetIssuer(),
			c.Config.GetAudience(),
			c.Logger,
		)
		c.Resolver = NewSessionResolver(validator, c.Repo.Users())
	}

	return c
}

// AuthErrorHandler is the error handler the protected routes use: the JSON
// envelope, never a redirect.
func (a *AuthController) AuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if IsTokenExpiredError(err) {
			return a.ErrorHandler(ctx, ErrTokenExpired)
		}
		if IsMalformedError(err) {
			return a.ErrorHandler(ctx, ErrTokenMalformed)
		}
		if strings.Contains(err.Error(), "access denied") {
			return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryAuthz, "insufficient role").
				WithTextCode("FORBIDDEN").
				WithCode(goerrors.CodeForbidden))
		}
		return a.ErrorHandler(ctx, ErrTokenSignature)
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the client asked to stay signed in
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		a.Logger.Error("login principal reload: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, AuthResponse{
		Success: true,
		User:    user.Sanitize(),
		Token:   token,
	})
}

// LoginPreflight answers the CORS preflight for the login endpoint. The
// wildcard origin is intentionally permissive for embedded clients.
func (a *AuthController) LoginPreflight(ctx router.Context) error {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	ctx.SetHeader("Access-Control-Allow-Methods", "POST, OPTIONS")
	ctx.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")
	return ctx.Status(fiber.StatusNoContent).SendString("")
}

// LogoutPost clears the session cookie. Issued tokens stay valid until
// they expire, there is no server side revocation list.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(fiber.StatusOK, AuthResponse{Success: true})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone" json:"phone"`
	Role            string `form:"role" json:"role"`
	TaskRole        string `form:"task_role" json:"task_role"`
	WorkerType      string `form:"worker_type" json:"worker_type"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	}

	if r.ConfirmPassword != "" {
		rules = append(rules, validation.Field(
			&r.ConfirmPassword,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		))
	}

	if r.Role != "" {
		rules = append(rules, validation.Field(
			&r.Role,
			validation.In(rolesAsAny()...),
		))
	}

	return validation.ValidateStruct(&r, rules...)
}

func rolesAsAny() []any {
	roles := GetAllRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return a.validationError(ctx, err)
	}

	var created *User
	registerUser := NewRegisterUserHandler(a.Repo)
	registerUser.OnResponse = func(u *User) {
		created = u
	}

	req := RegisterUserMessage{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Role:       payload.Role,
		TaskRole:   payload.TaskRole,
		WorkerType: payload.WorkerType,
		Password:   payload.Password,
	}

	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	token, err := a.Auther.Login(ctx, LoginRequest{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		// the account exists, the caller can still sign in manually
		a.Logger.Error("post-registration login error: %v", err)
		return ctx.JSON(fiber.StatusCreated, AuthResponse{
			Success: true,
			User:    created.Sanitize(),
		})
	}

	return ctx.JSON(fiber.StatusCreated, AuthResponse{
		Success: true,
		User:    created.Sanitize(),
		Token:   token,
	})
}

// VerifyPost confirms the presented token still maps to a live account.
func (a *AuthController) VerifyPost(ctx router.Context) error {
	return a.respondWithPrincipal(ctx)
}

// MeGet returns the sanitized principal for the presented token.
func (a *AuthController) MeGet(ctx router.Context) error {
	return a.respondWithPrincipal(ctx)
}

func (a *AuthController) respondWithPrincipal(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	user, err := a.Resolver.ResolveClaims(ctx.Context(), claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, AuthResponse{
		Success: true,
		User:    user,
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
	Stage string `form:"stage" json:"stage"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Stage,
			validation.Required,
			validation.In(
				ResetInit,
			),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: %v", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Stage: payload.Stage,
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
		"stage":   res.Stage,
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) PasswordResetExecute(ctx router.Context) error {
	sessionID := ctx.Param("uuid")

	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: %v", err)
		return a.ErrorHandler(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	input := FinalizePasswordResetMessage{
		Session:  sessionID,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"success": false,
		"error": map[string]any{
			"message":   "validation failed",
			"text_code": "VALIDATION_ERROR",
			"fields":    FormatValidationErrorToMap(err),
		},
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	result := map[string]string{}
	if err == nil {
		return result
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				result[field] = ferr.Error()
			}
		}
		return result
	}

	result["error"] = err.Error()
	return result
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
