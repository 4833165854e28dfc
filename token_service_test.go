package auth_test

import (
	"testing"
	"time"

	auth "github.com/ecovklad/go-auth"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTestIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (t tokenTestIdentity) ID() string       { return t.id }
func (t tokenTestIdentity) Username() string { return t.username }
func (t tokenTestIdentity) Email() string    { return t.email }
func (t tokenTestIdentity) Role() string {
	if len(t.roles) == 0 {
		return auth.RoleUser
	}
	return t.roles[0]
}
func (t tokenTestIdentity) Roles() []string { return t.roles }

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService(
		[]byte("test-signing-key"),
		24,
		"test-issuer",
		[]string{"test:audience"},
		testLogger{},
	)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	ts := newTestTokenService()

	identity := tokenTestIdentity{
		id:       uuid.New().String(),
		username: "testuser",
		email:    "test@example.com",
		roles:    []string{auth.RoleProjectCreator, auth.RoleUser},
	}

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.email, claims.UserEmail())
	assert.Equal(t, auth.RoleProjectCreator, claims.Role())
	assert.True(t, claims.HasRole(auth.RoleUser))
	assert.True(t, claims.Expires().After(time.Now()))

	jwtClaims, ok := claims.(*auth.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "test-issuer", jwtClaims.RegisteredClaims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test:audience"}, jwtClaims.RegisteredClaims.Audience)
	assert.NotEmpty(t, jwtClaims.RegisteredClaims.ID, "every issued token carries a unique jti")
}

func TestTokenServiceValidateRejectsTamperedToken(t *testing.T) {
	ts := newTestTokenService()

	token, err := ts.Generate(tokenTestIdentity{id: uuid.New().String()})
	require.NoError(t, err)

	claims, err := ts.Validate(token + "tampered")
	require.Error(t, err)
	assert.Nil(t, claims)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, auth.TextCodeTokenMalformed, richErr.TextCode)
}

func TestTokenServiceValidateRejectsWrongKey(t *testing.T) {
	other := auth.NewTokenService([]byte("other-key"), 24, "test-issuer", []string{"test:audience"}, testLogger{})

	token, err := other.Generate(tokenTestIdentity{id: uuid.New().String()})
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceValidateRejectsExpiredToken(t *testing.T) {
	ts := newTestTokenService()
	userID := uuid.New().String()
	now := time.Now()

	expired := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "test-issuer",
			Audience:  []string{"test:audience"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-24 * time.Hour)),
		},
		UID: userID,
	}

	tokenString, err := ts.SignClaims(expired)
	require.NoError(t, err)

	_, err = ts.Validate(tokenString)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenServiceValidateRejectsWrongIssuer(t *testing.T) {
	other := auth.NewTokenService([]byte("test-signing-key"), 24, "other-issuer", []string{"test:audience"}, testLogger{})

	token, err := other.Generate(tokenTestIdentity{id: uuid.New().String()})
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceValidateForSubject(t *testing.T) {
	ts := newTestTokenService()
	userID := uuid.New().String()

	token, err := ts.Generate(tokenTestIdentity{id: userID})
	require.NoError(t, err)

	assert.True(t, ts.ValidateForSubject(token, userID))
	assert.False(t, ts.ValidateForSubject(token, uuid.New().String()))
	assert.False(t, ts.ValidateForSubject(token, ""))
	assert.False(t, ts.ValidateForSubject("not-a-token", userID))
	assert.False(t, ts.ValidateForSubject(token+"tampered", userID))
}

func TestTokenServiceSignClaimsRejectsNil(t *testing.T) {
	ts := newTestTokenService()
	_, err := ts.SignClaims(nil)
	assert.Error(t, err)
}
