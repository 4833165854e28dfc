package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserFinder is the narrow store view the credential verifier needs
type UserFinder interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
}

// UserProvider resolves login identifiers to users and verifies passwords.
// An unknown identifier and a wrong password both surface as
// ErrInvalidCredentials so callers cannot probe which field was wrong.
type UserProvider struct {
	store  UserFinder
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyCredentials will find the user by email or username and compare the
// password against the stored hash
func (u *UserProvider) VerifyCredentials(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}

	return user, nil
}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrInvalidCredentials
	}

	user.EnsureStatus()
	if user.Status == UserStatusDisabled {
		return ErrAccountDisabled
	}

	return nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }

func (a authIdentity) Role() string {
	if len(a.roles) == 0 {
		return RoleUser
	}
	return a.roles[0]
}

func (a authIdentity) Roles() []string { return a.roles }

var _ Identity = authIdentity{}

// IdentityFromUser builds the token-facing identity view of a user
func IdentityFromUser(user *User) Identity {
	if user == nil {
		return authIdentity{}
	}
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}
	return authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		roles:    roles,
	}
}
