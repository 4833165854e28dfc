package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecovklad/go-auth/middleware/jwtware"
)

// NewRequireAuth builds a fiber middleware that rejects requests without a
// valid bearer token. Validated claims are stored in the request locals
// under the configured context key.
func NewRequireAuth(ts TokenService, cfg Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: validatorAdapter{ts},
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
	})
}

// NewRequireRole is like NewRequireAuth but additionally requires the token
// to carry at least the given role.
func NewRequireRole(ts TokenService, cfg Config, minRole string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: validatorAdapter{ts},
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		MinimumRole:    minRole,
	})
}

// validatorAdapter bridges TokenService to the narrower interface the
// middleware package expects.
type validatorAdapter struct {
	ts TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
