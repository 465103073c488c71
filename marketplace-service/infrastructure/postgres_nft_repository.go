package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	_ domain.NFTRepository = (*PostgresNFTRepository)(nil)
	_ domain.NFTSearcher   = (*PostgresNFTRepository)(nil)
)

// PostgresNFTRepository implements NFTRepository using PostgreSQL
type PostgresNFTRepository struct {
	db *sqlx.DB
}

// NewPostgresNFTRepository creates a new PostgresNFTRepository
func NewPostgresNFTRepository(db *sqlx.DB) *PostgresNFTRepository {
	return &PostgresNFTRepository{db: db}
}

// postgresNFT represents nft in database
type postgresNFT struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Description         string     `db:"description"`
	Image               string     `db:"image"`
	Mint                string     `db:"mint"`
	Owner               string     `db:"owner"`
	CreatorWallet       string     `db:"creator_wallet"`
	Attributes          []byte     `db:"attributes"`
	IsListed            bool       `db:"is_listed"`
	Price               int64      `db:"price"`
	ListedAt            *time.Time `db:"listed_at"`
	ListingDurationDays int        `db:"listing_duration_days"`
	ListedBy            string     `db:"listed_by"`
	Status              string     `db:"status"`
	History             []byte     `db:"history"`
	AcquiredAt          *time.Time `db:"acquired_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
	Version             int        `db:"version"`
	OldVersion          int        `db:"old_version"`
}

const nftColumns = `
	id, name, description, image, mint, owner, creator_wallet, attributes,
	is_listed, price, listed_at, listing_duration_days, listed_by, status,
	history, acquired_at, created_at, updated_at, deleted_at, version`

// FindByID finds an nft by ID
func (r *PostgresNFTRepository) FindByID(ctx context.Context, id models.ID) (*domain.NFT, error) {
	query := `SELECT ` + nftColumns + ` FROM nfts WHERE id = $1 AND deleted_at IS NULL`

	var pgNFT postgresNFT
	err := r.db.GetContext(ctx, &pgNFT, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find nft")
	}

	return r.toDomain(&pgNFT)
}

// Save inserts a new nft or updates an existing one guarded by its previous version
func (r *PostgresNFTRepository) Save(ctx context.Context, nft *domain.NFT) error {
	pgNFT, err := r.toPostgres(nft)
	if err != nil {
		return err
	}

	if nft.Version.Value <= 1 {
		return r.insertNFT(ctx, pgNFT)
	}
	return r.updateNFT(ctx, pgNFT)
}

func (r *PostgresNFTRepository) insertNFT(ctx context.Context, pgNFT *postgresNFT) error {
	query := `
		INSERT INTO nfts (` + nftColumns + `) VALUES (
			:id, :name, :description, :image, :mint, :owner, :creator_wallet, :attributes,
			:is_listed, :price, :listed_at, :listing_duration_days, :listed_by, :status,
			:history, :acquired_at, :created_at, :updated_at, :deleted_at, :version
		) ON CONFLICT (id) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, pgNFT)
	if err != nil {
		return errors.Wrap(err, "failed to insert nft")
	}
	return r.expectOneRow(result, pgNFT)
}

func (r *PostgresNFTRepository) updateNFT(ctx context.Context, pgNFT *postgresNFT) error {
	query := `
		UPDATE nfts SET
			name = :name, description = :description, image = :image, mint = :mint,
			owner = :owner, creator_wallet = :creator_wallet, attributes = :attributes,
			is_listed = :is_listed, price = :price, listed_at = :listed_at,
			listing_duration_days = :listing_duration_days, listed_by = :listed_by,
			status = :status, history = :history, acquired_at = :acquired_at,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	// optimistic locking
	pgNFT.OldVersion = pgNFT.Version - 1

	result, err := r.db.NamedExecContext(ctx, query, pgNFT)
	if err != nil {
		return errors.Wrap(err, "failed to update nft")
	}
	return r.expectOneRow(result, pgNFT)
}

// ReplaceByID overwrites the stored nft regardless of its version
func (r *PostgresNFTRepository) ReplaceByID(ctx context.Context, id models.ID, nft *domain.NFT) error {
	pgNFT, err := r.toPostgres(nft)
	if err != nil {
		return err
	}
	pgNFT.ID = id.String()

	query := `
		INSERT INTO nfts (` + nftColumns + `) VALUES (
			:id, :name, :description, :image, :mint, :owner, :creator_wallet, :attributes,
			:is_listed, :price, :listed_at, :listing_duration_days, :listed_by, :status,
			:history, :acquired_at, :created_at, :updated_at, :deleted_at, :version
		) ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, image = EXCLUDED.image,
			mint = EXCLUDED.mint, owner = EXCLUDED.owner, creator_wallet = EXCLUDED.creator_wallet,
			attributes = EXCLUDED.attributes, is_listed = EXCLUDED.is_listed, price = EXCLUDED.price,
			listed_at = EXCLUDED.listed_at, listing_duration_days = EXCLUDED.listing_duration_days,
			listed_by = EXCLUDED.listed_by, status = EXCLUDED.status, history = EXCLUDED.history,
			acquired_at = EXCLUDED.acquired_at, updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at, version = EXCLUDED.version`

	if _, err := r.db.NamedExecContext(ctx, query, pgNFT); err != nil {
		return errors.Wrapf(err, "failed to replace nft %s", id)
	}
	return nil
}

// DeleteByID removes the row; used to undo a mint that never committed
func (r *PostgresNFTRepository) DeleteByID(ctx context.Context, id models.ID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM nfts WHERE id = $1`, id.String()); err != nil {
		return errors.Wrapf(err, "failed to delete nft %s", id)
	}
	return nil
}

// Search returns one page of live nfts matching query, newest first
func (r *PostgresNFTRepository) Search(ctx context.Context, query domain.NFTQuery) (*domain.NFTPage, error) {
	where, args := searchFilter(query)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM nfts`+where, args...); err != nil {
		return nil, errors.Wrap(err, "failed to count nfts")
	}

	selectQuery := `SELECT ` + nftColumns + ` FROM nfts` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	var rows []postgresNFT
	if err := r.db.SelectContext(ctx, &rows, selectQuery, append(args, query.Limit, query.Offset())...); err != nil {
		return nil, errors.Wrap(err, "failed to search nfts")
	}

	page := &domain.NFTPage{NFTs: make([]*domain.NFT, 0, len(rows)), Total: total, Page: query.Page, Limit: query.Limit}
	for i := range rows {
		nft, err := r.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		page.NFTs = append(page.NFTs, nft)
	}
	return page, nil
}

// searchFilter builds the WHERE clause with numbered placeholders
func searchFilter(query domain.NFTQuery) (string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if query.Owner != "" {
		add("owner = $%d", query.Owner)
	}
	if query.CreatorWallet != "" {
		add("creator_wallet = $%d", query.CreatorWallet)
	}
	if query.Status != "" {
		add("status = $%d", string(query.Status))
	}
	if query.IsListed != nil {
		add("is_listed = $%d", *query.IsListed)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *PostgresNFTRepository) expectOneRow(result sql.Result, pgNFT *postgresNFT) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrConcurrentModification, "nft %s at version %d", pgNFT.ID, pgNFT.Version)
	}
	return nil
}

// toPostgres converts domain nft to postgres model
func (r *PostgresNFTRepository) toPostgres(nft *domain.NFT) (*postgresNFT, error) {
	attributes, err := json.Marshal(nonNil(nft.Attributes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal nft attributes")
	}
	history, err := json.Marshal(nonNil(nft.History))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal nft history")
	}

	return &postgresNFT{
		ID:                  nft.ID.String(),
		Name:                nft.Name,
		Description:         nft.Description,
		Image:               nft.Image,
		Mint:                nft.Mint,
		Owner:               nft.Owner,
		CreatorWallet:       nft.CreatorWallet,
		Attributes:          attributes,
		IsListed:            nft.IsListed,
		Price:               nft.Price.Int64(),
		ListedAt:            nft.ListedAt,
		ListingDurationDays: nft.ListingDurationDays,
		ListedBy:            nft.ListedBy,
		Status:              string(nft.Status),
		History:             history,
		AcquiredAt:          nft.AcquiredAt,
		CreatedAt:           nft.Timestamps.CreatedAt,
		UpdatedAt:           nft.Timestamps.UpdatedAt,
		DeletedAt:           nft.Timestamps.DeletedAt,
		Version:             nft.Version.Value,
	}, nil
}

// toDomain converts postgres model to domain nft
func (r *PostgresNFTRepository) toDomain(pgNFT *postgresNFT) (*domain.NFT, error) {
	var attributes []domain.Attribute
	if len(pgNFT.Attributes) > 0 {
		if err := json.Unmarshal(pgNFT.Attributes, &attributes); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal nft attributes")
		}
	}
	var history []domain.HistoryEntry
	if len(pgNFT.History) > 0 {
		if err := json.Unmarshal(pgNFT.History, &history); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal nft history")
		}
	}

	return &domain.NFT{
		ID:                  models.ID(pgNFT.ID),
		Name:                pgNFT.Name,
		Description:         pgNFT.Description,
		Image:               pgNFT.Image,
		Mint:                pgNFT.Mint,
		Owner:               pgNFT.Owner,
		CreatorWallet:       pgNFT.CreatorWallet,
		Attributes:          attributes,
		IsListed:            pgNFT.IsListed,
		Price:               models.Lamports(pgNFT.Price),
		ListedAt:            pgNFT.ListedAt,
		ListingDurationDays: pgNFT.ListingDurationDays,
		ListedBy:            pgNFT.ListedBy,
		Status:              domain.NFTStatus(pgNFT.Status),
		History:             history,
		AcquiredAt:          pgNFT.AcquiredAt,
		Timestamps: models.Timestamps{
			CreatedAt: pgNFT.CreatedAt,
			UpdatedAt: pgNFT.UpdatedAt,
			DeletedAt: pgNFT.DeletedAt,
		},
		Version: models.Version{Value: pgNFT.Version},
	}, nil
}

// nonNil keeps JSONB columns as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
