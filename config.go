package auth

import "time"

// SimpleConfig is a plain value implementation of Config. Callers build one
// at startup, typically from environment variables, and it is read only after
// construction.
type SimpleConfig struct {
	SigningKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
	CodeTTL         time.Duration
}

var _ Config = (*SimpleConfig)(nil)

// GetSigningKey returns the process wide HMAC signing secret
func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

// GetTokenExpiration returns the token lifetime in hours, defaulting to 24
func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

// GetIssuer returns the iss claim value
func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

// GetAudience returns the aud claim values
func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

// GetContextKey returns the request-locals key claims are stored under
func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

// GetTokenLookup returns where the middleware extracts tokens from
func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

// GetAuthScheme returns the authorization header scheme
func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return TokenTypeBearer
	}
	return c.AuthScheme
}

// GetCodeTTL returns the verification code validity window
func (c *SimpleConfig) GetCodeTTL() time.Duration {
	if c.CodeTTL <= 0 {
		return DefaultCodeTTL
	}
	return c.CodeTTL
}
