package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// AuthControllerRoutes holds the mounted paths
type AuthControllerRoutes struct {
	Register      string
	Login         string
	LoginWithCode string
	VerifyEmail   string
	ResendCode    string
	Me            string
}

// AuthController exposes the auth flows as a JSON REST surface
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Auther
	Config Config
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRoutes overrides the default route paths
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// NewAuthController creates a controller for the given orchestrator
func NewAuthController(auther *Auther, cfg Config, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Auther: auther,
		Config: cfg,
		Routes: &AuthControllerRoutes{
			Register:      "/auth/register",
			Login:         "/auth/login",
			LoginWithCode: "/auth/login-with-code",
			VerifyEmail:   "/auth/verify-email",
			ResendCode:    "/auth/resend-verification",
			Me:            "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the given router
func RegisterAuthRoutes(app fiber.Router, auther *Auther, cfg Config, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(auther, cfg, opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.LoginWithCode, controller.LoginWithCodePost)
	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmailPost)
	app.Post(controller.Routes.ResendCode, controller.ResendCodePost)
	app.Get(controller.Routes.Me, controller.RequireAuth(), controller.MeGet)

	return controller
}

// RegistrationCreatePayload is the registration request body
type RegistrationCreatePayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
}

// Validate will run validation rules
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(10, 16)),
	)
}

// LoginRequestPayload is the password login request body. Login accepts an
// email or a username.
type LoginRequestPayload struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// CodeLoginPayload is the passwordless login request body
type CodeLoginPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate will run validation rules
func (r CodeLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(CodeLength, CodeLength), is.Digit),
	)
}

// VerifyEmailPayload carries a verification code
type VerifyEmailPayload struct {
	Code string `json:"code"`
}

// Validate will run validation rules
func (r VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(CodeLength, CodeLength), is.Digit),
	)
}

// ResendCodePayload asks for a new verification code
type ResendCodePayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResendCodePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.respondParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.respondValidationError(c, err)
	}

	summary, err := a.Auther.Register(c.UserContext(), RegisterUserMessage{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
	})
	if err != nil {
		a.Logger.Error("register user", "error", err)
		return a.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(summary)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.respondParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(c, err)
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Login, payload.Password)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(result)
}

func (a *AuthController) LoginWithCodePost(c *fiber.Ctx) error {
	payload := new(CodeLoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.respondParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(c, err)
	}

	result, err := a.Auther.LoginWithCode(c.UserContext(), payload.Email, payload.Code)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(result)
}

func (a *AuthController) VerifyEmailPost(c *fiber.Ctx) error {
	payload := new(VerifyEmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.respondParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(c, err)
	}

	result, err := a.Auther.VerifyEmail(c.UserContext(), payload.Code)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "email verified",
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"user":         result.User,
	})
}

func (a *AuthController) ResendCodePost(c *fiber.Ctx) error {
	payload := new(ResendCodePayload)

	if err := c.BodyParser(payload); err != nil {
		return a.respondParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(c, err)
	}

	if err := a.Auther.ResendVerificationCode(c.UserContext(), payload.Email); err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "verification code sent",
	})
}

// MeGet returns the claims of the authenticated caller
func (a *AuthController) MeGet(c *fiber.Ctx) error {
	claims, ok := c.Locals(a.contextKey()).(AuthClaims)
	if !ok {
		return a.respondError(c, ErrTokenMalformed)
	}

	return c.JSON(fiber.Map{
		"id":    claims.UserID(),
		"email": claims.UserEmail(),
		"role":  claims.Role(),
	})
}

// RequireAuth returns the bearer-token middleware guarding protected routes
func (a *AuthController) RequireAuth() fiber.Handler {
	return NewRequireAuth(a.Auther.TokenService(), a.Config)
}

func (a *AuthController) contextKey() string {
	if a.Config != nil {
		return a.Config.GetContextKey()
	}
	return "user"
}

func (a *AuthController) respondParseError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "failed to parse request body",
	})
}

func (a *AuthController) respondValidationError(c *fiber.Ctx, err error) error {
	if errs, ok := err.(validation.Errors); ok {
		fields := map[string]string{}
		for name, ferr := range errs {
			fields[name] = ferr.Error()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (a *AuthController) respondError(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		body := fiber.Map{"error": richErr.Message}
		if richErr.TextCode != "" {
			body["code"] = richErr.TextCode
		}
		return c.Status(status).JSON(body)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": "internal error",
	})
}
