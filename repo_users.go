package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// StoreVerificationCodeSQL writes a code and its expiry in one statement.
// The two columns are only ever written together.
var StoreVerificationCodeSQL = `UPDATE "users" AS "usr"
SET
	"verification_code" = ?,
	"code_expires_at" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// ConsumeVerificationCodeSQL clears the code and marks the email verified in
// one statement. The WHERE guards on the stored code itself, so of two
// concurrent consumers only the first matches a row; the loser gets zero
// rows back and never observes a half-updated record.
var ConsumeVerificationCodeSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"verification_code" = NULL,
	"code_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."verification_code" = ?
AND (
	"usr"."id" = ?
) RETURNING *;`

// ClearVerificationCodeSQL clears the code without touching the verified
// flag, used by code login which does not require a verified email. Same
// stored-code guard as ConsumeVerificationCodeSQL.
var ClearVerificationCodeSQL = `UPDATE "users" AS "usr"
SET
	"verification_code" = NULL,
	"code_expires_at" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."verification_code" = ?
AND (
	"usr"."id" = ?
) RETURNING *;`

// UpdateUserStatusSQL flips the administrative account status
var UpdateUserStatusSQL = `UPDATE "users" AS "usr"
SET
	"status" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByVerificationCode(ctx context.Context, code string) (*User, error)
	GetByVerificationCodeTx(ctx context.Context, tx bun.IDB, code string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)

	StoreVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) (*User, error)
	StoreVerificationCodeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiry time.Time) (*User, error)
	ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string, markVerified bool) (*User, error)
	ConsumeVerificationCodeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, markVerified bool) (*User, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) GetByVerificationCode(ctx context.Context, code string) (*User, error) {
	return a.GetByVerificationCodeTx(ctx, a.db, code)
}

func (a *users) GetByVerificationCodeTx(ctx context.Context, tx bun.IDB, code string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.verification_code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}
	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.ExistsByUsernameTx(ctx, a.db, username)
}

func (a *users) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) StoreVerificationCode(ctx context.Context, id uuid.UUID, code string, expiry time.Time) (*User, error) {
	return a.StoreVerificationCodeTx(ctx, a.db, id, code, expiry)
}

func (a *users) StoreVerificationCodeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiry time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, StoreVerificationCodeSQL, code, expiry, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func (a *users) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code string, markVerified bool) (*User, error) {
	return a.ConsumeVerificationCodeTx(ctx, a.db, id, code, markVerified)
}

func (a *users) ConsumeVerificationCodeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, markVerified bool) (*User, error) {
	sql := ClearVerificationCodeSQL
	if markVerified {
		sql = ConsumeVerificationCodeSQL
	}

	res, err := a.Repository.RawTx(ctx, tx, sql, code, id.String())
	if err != nil {
		return nil, err
	}

	// zero rows means a racing consumer cleared the code first
	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, UpdateUserStatusSQL, status, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	record.EnsureRoles()
	record.EnsureStatus()
}

type identifierOption struct {
	column string
	value  string
}

// resolveUserIdentifier maps a login identifier to the columns it could
// live in: a parseable address resolves to email, a parseable phone number
// to phone_number, anything else to username.
func resolveUserIdentifier(identifier string) []identifierOption {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	if addr, err := mail.ParseAddress(identifier); err == nil {
		return []identifierOption{{column: "email", value: addr.Address}}
	}

	if num, err := phonenumbers.Parse(identifier, "RU"); err == nil && phonenumbers.IsValidNumber(num) {
		return []identifierOption{{
			column: "phone_number",
			value:  phonenumbers.Format(num, phonenumbers.E164),
		}}
	}

	return []identifierOption{{column: "username", value: identifier}}
}
