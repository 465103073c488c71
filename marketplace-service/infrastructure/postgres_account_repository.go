package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.AccountRepository = (*PostgresAccountRepository)(nil)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	db *sqlx.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *sqlx.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

type postgresAccount struct {
	ID        string     `db:"id"`
	Wallet    string     `db:"wallet"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// FindByWallet finds the account of a wallet
func (r *PostgresAccountRepository) FindByWallet(ctx context.Context, wallet string) (*domain.Account, error) {
	query := `
		SELECT id, wallet, created_at, updated_at, deleted_at
		FROM accounts
		WHERE wallet = $1 AND deleted_at IS NULL
		LIMIT 1`

	var pgAccount postgresAccount
	err := r.db.GetContext(ctx, &pgAccount, query, wallet)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find account by wallet")
	}

	return &domain.Account{
		ID:     models.ID(pgAccount.ID),
		Wallet: pgAccount.Wallet,
		Timestamps: models.Timestamps{
			CreatedAt: pgAccount.CreatedAt,
			UpdatedAt: pgAccount.UpdatedAt,
			DeletedAt: pgAccount.DeletedAt,
		},
	}, nil
}

// Create inserts a new account
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, wallet, created_at, updated_at)
		VALUES (:id, :wallet, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, &postgresAccount{
		ID:        account.ID.String(),
		Wallet:    account.Wallet,
		CreatedAt: account.Timestamps.CreatedAt,
		UpdatedAt: account.Timestamps.UpdatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "failed to insert account")
	}
	return nil
}

// DeleteByID removes an account; deleting a missing account is not an error
func (r *PostgresAccountRepository) DeleteByID(ctx context.Context, id models.ID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id.String()); err != nil {
		return errors.Wrapf(err, "failed to delete account %s", id)
	}
	return nil
}
