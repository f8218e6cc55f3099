package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// CollateralRepo implements storage.CollateralRepository using PostgreSQL.
type CollateralRepo struct {
	db *DB
}

// NewCollateralRepo creates a new PostgreSQL collateral repository.
func NewCollateralRepo(db *DB) *CollateralRepo {
	return &CollateralRepo{db: db}
}

type collateralRow struct {
	Token              string `db:"token"`
	NetworkID          int64  `db:"network_id"`
	Decimals           int32  `db:"decimals"`
	FeedDecimals       int32  `db:"feed_decimals"`
	Feed               string `db:"feed"`
	Initializer        string `db:"initializer"`
	Symbol             string `db:"symbol"`
	Approved           bool   `db:"approved"`
	AraTreasuryBalance string `db:"ara_treasury_balance"`
}

func (row *collateralRow) toDomain() *domain.Collateral {
	return &domain.Collateral{
		Token:              row.Token,
		NetworkID:          row.NetworkID,
		Decimals:           row.Decimals,
		FeedDecimals:       row.FeedDecimals,
		Feed:               row.Feed,
		Initializer:        row.Initializer,
		Symbol:             row.Symbol,
		Approved:           row.Approved,
		AraTreasuryBalance: row.AraTreasuryBalance,
	}
}

// Get retrieves a collateral by its natural key.
func (r *CollateralRepo) Get(
	ctx context.Context,
	token string,
	networkID int64,
) (*domain.Collateral, error) {
	var row collateralRow
	err := r.db.GetContext(ctx, &row, `
		SELECT token, network_id, decimals, feed_decimals, feed, initializer,
		       symbol, approved, ara_treasury_balance
		FROM collaterals
		WHERE token = $1 AND network_id = $2
	`, token, networkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collateral %s/%d: %w", token, networkID, err)
	}
	return row.toDomain(), nil
}

// Insert creates a collateral.
func (r *CollateralRepo) Insert(ctx context.Context, c *domain.Collateral) error {
	query := `
		INSERT INTO collaterals (token, network_id, decimals, feed_decimals, feed,
		                         initializer, symbol, approved, ara_treasury_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.Token, c.NetworkID, c.Decimals, c.FeedDecimals, c.Feed,
		c.Initializer, c.Symbol, c.Approved, c.AraTreasuryBalance)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert collateral %s/%d: %w", c.Token, c.NetworkID, err)
	}
	return nil
}

// Replace overwrites a collateral located by its natural key.
func (r *CollateralRepo) Replace(ctx context.Context, c *domain.Collateral) error {
	query := `
		UPDATE collaterals
		SET decimals = $3, feed_decimals = $4, feed = $5, initializer = $6,
		    symbol = $7, approved = $8, ara_treasury_balance = $9
		WHERE token = $1 AND network_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		c.Token, c.NetworkID, c.Decimals, c.FeedDecimals, c.Feed,
		c.Initializer, c.Symbol, c.Approved, c.AraTreasuryBalance)
	if err != nil {
		return fmt.Errorf("failed to replace collateral %s/%d: %w", c.Token, c.NetworkID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
