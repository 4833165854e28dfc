package auth_test

import (
	"testing"
	"time"

	auth "github.com/ecovklad/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGeneratorGenerate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	g := auth.NewCodeGenerator(auth.WithCodeClock(func() time.Time { return now }))

	code, expiry, err := g.Generate()
	require.NoError(t, err)

	assert.Len(t, code, auth.CodeLength)
	assert.True(t, auth.IsVerificationCode(code), "generated code %q should be all digits", code)
	assert.Equal(t, now.Add(auth.DefaultCodeTTL), expiry)
}

func TestCodeGeneratorPreservesLeadingZeros(t *testing.T) {
	g := auth.NewCodeGenerator()

	// a uniform draw over 000000-999999 will regularly produce values below
	// 100000; every one of them must still render as 6 characters
	for i := 0; i < 256; i++ {
		code, _, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, auth.CodeLength)
		require.True(t, auth.IsVerificationCode(code))
	}
}

func TestCodeGeneratorCustomTTL(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	g := auth.NewCodeGenerator(
		auth.WithCodeTTL(90*time.Second),
		auth.WithCodeClock(func() time.Time { return now }),
	)

	assert.Equal(t, 90*time.Second, g.TTL())

	_, expiry, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Second), expiry)
}

func TestCodeGeneratorIgnoresInvalidOptions(t *testing.T) {
	g := auth.NewCodeGenerator(auth.WithCodeTTL(-1 * time.Minute))
	assert.Equal(t, auth.DefaultCodeTTL, g.TTL())
}

func TestIsVerificationCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "valid code", code: "042617", want: true},
		{name: "all zeros", code: "000000", want: true},
		{name: "too short", code: "12345", want: false},
		{name: "too long", code: "1234567", want: false},
		{name: "letters", code: "12a456", want: false},
		{name: "empty", code: "", want: false},
		{name: "unicode digits", code: "１２３４５６", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsVerificationCode(tt.code))
		})
	}
}

func TestUserCodeHelpers(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	code := "123456"
	expiry := now.Add(5 * time.Minute)

	user := &auth.User{
		VerificationCode: &code,
		CodeExpiresAt:    &expiry,
	}

	assert.True(t, user.HasOutstandingCode())
	assert.True(t, user.CodeMatches("123456"))
	assert.False(t, user.CodeMatches("654321"))
	assert.False(t, user.CodeMatches(""))

	assert.False(t, user.CodeExpiredAt(now))
	assert.False(t, user.CodeExpiredAt(expiry), "boundary instant is still valid")
	assert.True(t, user.CodeExpiredAt(expiry.Add(time.Second)))

	blank := &auth.User{}
	assert.False(t, blank.HasOutstandingCode())
	assert.False(t, blank.CodeMatches("123456"))
	assert.True(t, blank.CodeExpiredAt(now))
}
