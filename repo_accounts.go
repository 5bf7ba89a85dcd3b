package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

// Accounts is the account store. Every finder skips deactivated
// accounts unless it explicitly says otherwise.
type Accounts interface {
	repository.Repository[*Account]

	GetActiveByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string, includeInactive bool) (*Account, error)
	FindByConfirmTokenHash(ctx context.Context, hash string) (*Account, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*Account, error)
	ListActive(ctx context.Context) ([]*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	UpdateColumns(ctx context.Context, record *Account, columns ...string) error
	UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *Account, columns ...string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	ActivateIfInactive(ctx context.Context, id uuid.UUID) (bool, error)
}

type accounts struct {
	repository.Repository[*Account]
	db  *bun.DB
	now Clock
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// AccountsOption configures the accounts repository
type AccountsOption func(*accounts)

// WithAccountsClock sets the clock used for updated_at
func WithAccountsClock(clock Clock) AccountsOption {
	return func(a *accounts) {
		if clock != nil {
			a.now = clock
		}
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func (a *accounts) GetActiveByID(ctx context.Context, id string) (*Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("id", id)
	}

	record := &Account{}
	err = a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid).
		Where("?TableAlias.active = ?", true).
		Limit(1).
		Scan(ctx)

	return scanResult(record, err, "id", id)
}

func (a *accounts) FindByEmail(ctx context.Context, email string, includeInactive bool) (*Account, error) {
	email = NormalizeEmail(email)

	record := &Account{}
	q := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email)

	if !includeInactive {
		q.Where("?TableAlias.active = ?", true)
	}

	err := q.Limit(1).Scan(ctx)

	return scanResult(record, err, "email", email)
}

func (a *accounts) FindByConfirmTokenHash(ctx context.Context, hash string) (*Account, error) {
	return a.findByColumn(ctx, "confirm_token_hash", hash)
}

func (a *accounts) FindByResetTokenHash(ctx context.Context, hash string) (*Account, error) {
	return a.findByColumn(ctx, "reset_token_hash", hash)
}

func (a *accounts) findByColumn(ctx context.Context, column, value string) (*Account, error) {
	if value == "" {
		return nil, notFound(column, value)
	}

	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Where("?TableAlias.active = ?", true).
		Limit(1).
		Scan(ctx)

	return scanResult(record, err, column, value)
}

func (a *accounts) ListActive(ctx context.Context) ([]*Account, error) {
	records := []*Account{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.active = ?", true).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return records, nil
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	now := a.now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accounts) UpdateColumns(ctx context.Context, record *Account, columns ...string) error {
	return a.UpdateColumnsTx(ctx, a.db, record, columns...)
}

// UpdateColumnsTx writes only the given columns, zero valued nullzero
// fields are written as NULL.
func (a *accounts) UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *Account, columns ...string) error {
	if record == nil || record.ID == uuid.Nil {
		return notFound("id", "")
	}

	now := a.now()
	record.UpdatedAt = &now
	columns = append(columns, "updated_at")

	res, err := tx.NewUpdate().
		Model(record).
		Column(columns...).
		Where("id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("id", record.ID.String())
	}

	return nil
}

func (a *accounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ActivateIfInactive flips a deactivated account back on. It reports
// false when the account was already active or does not exist.
func (a *accounts) ActivateIfInactive(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("active = ?", true).
		Set("email_confirmed = ?", true).
		Set("confirm_token_hash = NULL").
		Set("confirm_token_expires_at = NULL").
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Where("active = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func scanResult(record *Account, err error, column, value string) (*Account, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, notFound(column, value)
		}
		return nil, err
	}
	return record, nil
}

func notFound(column, value string) error {
	return repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			column: value,
		})
}

// IsUniqueViolation reports whether err was raised by a unique constraint,
// for either the postgres or the sqlite driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsDuplicatedKey(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
