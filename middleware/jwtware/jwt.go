// Package jwtware provides a fiber middleware that guards routes with
// bearer tokens issued by the auth package.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrJWTMissingOrMalformed is returned when no usable token is found on the request
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

const defaultTokenLookup = "header:" + fiber.HeaderAuthorization

// AuthClaims mirrors the claims interface from the auth package without
// creating an import cycle
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
}

// TokenValidator mirrors the TokenService.Validate method from the auth package
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// Config holds middleware options
type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// ErrorHandler handles extraction and validation failures
	ErrorHandler fiber.ErrorHandler
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
	// ContextKey is the locals key validated claims are stored under
	ContextKey string
	// TokenLookup is a "<source>:<name>" string, e.g. "header:Authorization"
	TokenLookup string
	// AuthScheme is the expected authorization header scheme
	AuthScheme string
	// RequiredRole specifies an exact role that must be present
	RequiredRole string
	// MinimumRole specifies the minimum role level required
	MinimumRole string
}

// GetDefaultConfig normalizes the optional config
func GetDefaultConfig(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("jwtware: TokenValidator is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

// New returns the bearer-token middleware
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, cfg)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if err := performAuthorizationChecks(claims, cfg); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		return c.Next()
	}
}

// ErrInsufficientRole is returned when the token is valid but the role
// check fails
var ErrInsufficientRole = errors.New("insufficient role")

func performAuthorizationChecks(claims AuthClaims, cfg Config) error {
	if cfg.RequiredRole != "" && !claims.HasRole(cfg.RequiredRole) {
		return ErrInsufficientRole
	}

	if cfg.MinimumRole != "" && !claims.IsAtLeast(cfg.MinimumRole) {
		return ErrInsufficientRole
	}

	return nil
}

func extractRawToken(c *fiber.Ctx, cfg Config) (string, error) {
	parts := strings.SplitN(cfg.TokenLookup, ":", 2)
	if len(parts) != 2 {
		return "", ErrJWTMissingOrMalformed
	}

	source, name := parts[0], parts[1]

	switch source {
	case "header":
		return extractFromHeader(c.Get(name), cfg.AuthScheme)
	case "query":
		if token := c.Query(name); token != "" {
			return token, nil
		}
		return "", ErrJWTMissingOrMalformed
	case "cookie":
		if token := c.Cookies(name); token != "" {
			return token, nil
		}
		return "", ErrJWTMissingOrMalformed
	default:
		return "", ErrJWTMissingOrMalformed
	}
}

func extractFromHeader(value, authScheme string) (string, error) {
	if value == "" {
		return "", ErrJWTMissingOrMalformed
	}

	if authScheme == "" {
		return value, nil
	}

	prefix := authScheme + " "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	return value[len(prefix):], nil
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrInsufficientRole) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient role",
		})
	}

	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "invalid or missing authentication token",
	})
}
