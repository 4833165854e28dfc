package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// Auther orchestrates registration, email verification, and the login
// flows. Every operation runs as an independent unit of work; the store's
// unique constraints and single-statement updates are the only
// serialization points between concurrent calls.
type Auther struct {
	repo         RepositoryManager
	provider     *UserProvider
	tokenService TokenService
	codes        *CodeGenerator
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// NewAuthenticator returns a new Auther wired with defaults: a 5 minute
// code window, a log-only notifier, and a token service built from cfg.
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	logger := defLogger{}

	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)

	return &Auther{
		repo:         repo,
		provider:     NewUserProvider(repo.Users()),
		tokenService: tokenService,
		codes:        NewCodeGenerator(),
		notifier:     NewLogNotifier(logger),
		activitySink: noopActivitySink{},
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.provider = s.provider.WithLogger(logger)
	}
	return s
}

// WithNotifier sets the delivery sink for verification codes
func (s *Auther) WithNotifier(notifier Notifier) *Auther {
	if notifier != nil {
		s.notifier = notifier
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithCodeGenerator overrides the verification code generator
func (s *Auther) WithCodeGenerator(g *CodeGenerator) *Auther {
	if g != nil {
		s.codes = g
	}
	return s
}

// WithTokenService overrides the token service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithClock injects a custom clock (useful for tests)
func (s *Auther) WithClock(now func() time.Time) *Auther {
	if now != nil {
		s.now = now
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new unverified user, issues a verification code, and
// asks the notifier to deliver it. Delivery failure does not roll back the
// committed user record: the resend flow is the recovery path.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*UserSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if taken, err := s.repo.Users().ExistsByEmail(ctx, msg.Email); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	} else if taken {
		return nil, ErrEmailConflict
	}

	username := getUsername(msg.Username, msg.Email)
	if taken, err := s.repo.Users().ExistsByUsername(ctx, username); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
	} else if taken {
		return nil, ErrUsernameConflict
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	code, expiry, err := s.codes.Generate()
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:         username,
		Email:            msg.Email,
		Phone:            msg.Phone,
		FirstName:        msg.FirstName,
		LastName:         msg.LastName,
		PasswordHash:     hash,
		VerificationCode: &code,
		CodeExpiresAt:    &expiry,
	}

	if msg.Role != "" && IsValidRole(msg.Role) {
		user.Roles = []UserRole{msg.Role}
	}

	if id, err := hashid.NewUUID(msg.Email); err == nil {
		user.ID = id
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			// the pre-checks race with concurrent registrations; the
			// store's unique constraint is the authoritative signal
			if IsUniqueViolation(err) {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "user already exists").
					WithCode(goerrors.CodeConflict)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}
		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		s.logger.Error("failed to deliver verification code", "email", user.Email, "error", err)
	}

	s.emitEvent(ctx, ActivityEventUserRegistered, user.ID.String(), nil)

	return user.Summary(), nil
}

// VerifyEmail consumes an outstanding verification code, marks the email
// verified, and issues a token for the now verified identity. The clear and
// the flag flip are persisted as a single statement.
func (s *Auther) VerifyEmail(ctx context.Context, code string) (*AuthResult, error) {
	user, err := s.repo.Users().GetByVerificationCode(ctx, code)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification code")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if user.CodeExpiredAt(s.now()) {
		return nil, ErrCodeExpired
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := s.repo.Users().ConsumeVerificationCodeTx(ctx, tx, user.ID, code, true)
		if err != nil {
			// a concurrent consumer beat us to the code
			if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
				return ErrInvalidCode
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification code")
		}
		user = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventEmailVerified, user.ID.String(), nil)

	return s.authResult(user)
}

// Login authenticates with an email-or-username identifier plus password.
// The user record is not mutated.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	user, err := s.provider.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify credentials error", "error", err)
		s.emitEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if !user.EmailVerified {
		s.emitEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"identifier": identifier,
			"error":      ErrEmailNotVerified.Error(),
		})
		return nil, ErrEmailNotVerified
	}

	result, err := s.authResult(user)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return result, nil
}

// LoginWithCode authenticates with an email plus an outstanding
// verification code, consuming the code. It deliberately does not require a
// verified email: holding a valid code is itself proof of mailbox
// ownership, so this path doubles as a passwordless login.
func (s *Auther) LoginWithCode(ctx context.Context, email, code string) (*AuthResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for code login")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if !user.CodeMatches(code) {
		return nil, ErrInvalidCode
	}

	if user.CodeExpiredAt(s.now()) {
		return nil, ErrCodeExpired
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := s.repo.Users().ConsumeVerificationCodeTx(ctx, tx, user.ID, code, false)
		if err != nil {
			// a concurrent consumer beat us to the code
			if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
				return ErrInvalidCode
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification code")
		}
		user = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.authResult(user)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{
		"method": "code",
	})

	return result, nil
}

// ResendVerificationCode rotates the outstanding code for an unverified
// user. The previous code is invalidated the moment the new one is stored.
func (s *Auther) ResendVerificationCode(ctx context.Context, email string) error {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for code resend")
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, expiry, err := s.codes.Generate()
	if err != nil {
		return err
	}

	if _, err := s.repo.Users().StoreVerificationCode(ctx, user.ID, code, expiry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification code")
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		s.logger.Error("failed to deliver verification code", "email", user.Email, "error", err)
	}

	s.emitEvent(ctx, ActivityEventCodeResent, user.ID.String(), nil)

	return nil
}

func (s *Auther) authResult(user *User) (*AuthResult, error) {
	token, err := s.tokenService.Generate(IdentityFromUser(user))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token")
	}

	return &AuthResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		User:        user.Summary(),
	}, nil
}

func (s *Auther) emitEvent(ctx context.Context, eventType ActivityEventType, userID string, meta map[string]any) {
	evt := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		OccurredAt: s.now(),
		Metadata:   meta,
	}
	if err := s.activitySink.Record(ctx, evt); err != nil {
		s.logger.Error("failed to record activity event", "event", eventType, "error", err)
	}
}
