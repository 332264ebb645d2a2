package account

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores disbursement records in PostgreSQL. Amounts are
// kept as NUMERIC(78,0) wei so arbitrary totals survive without rounding.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the ledger table and indexes if missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS faucet_accounts (
            wallet VARCHAR(42) PRIMARY KEY,
            last_origin_key TEXT NOT NULL DEFAULT 'unknown',
            total_wei NUMERIC(78, 0) NOT NULL DEFAULT 0,
            request_count INTEGER NOT NULL DEFAULT 0,
            last_disbursed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
            last_reference TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX IF NOT EXISTS idx_faucet_accounts_origin
            ON faucet_accounts (last_origin_key, last_disbursed_at DESC);
        CREATE INDEX IF NOT EXISTS idx_faucet_accounts_last_disbursed
            ON faucet_accounts (last_disbursed_at);`

	if _, err := r.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure faucet schema: %w", err)
	}
	return nil
}

const recordColumns = `wallet, last_origin_key, total_wei::text, request_count,
        last_disbursed_at, last_reference, created_at, updated_at`

// FindByWallet fetches the record keyed by normalized wallet address.
func (r *PostgresRepository) FindByWallet(ctx context.Context, wallet string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+`
        FROM faucet_accounts WHERE wallet = $1`, wallet)
	return scanRecord(row)
}

// FindLatestByOriginKey returns the most recently disbursed record carrying
// the given origin key.
func (r *PostgresRepository) FindLatestByOriginKey(ctx context.Context, originKey string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+`
        FROM faucet_accounts WHERE last_origin_key = $1
        ORDER BY last_disbursed_at DESC LIMIT 1`, originKey)
	return scanRecord(row)
}

// RecordDisbursement upserts the wallet row in a single statement so the
// total/count increments are atomic. A replay with the wallet's current
// reference matches no row and falls back to returning the stored record.
func (r *PostgresRepository) RecordDisbursement(ctx context.Context, wallet, originKey string, amount *big.Int, reference string) (Record, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Record{}, fmt.Errorf("amount must be positive")
	}

	row := r.db.QueryRow(ctx, `
        INSERT INTO faucet_accounts (wallet, last_origin_key, total_wei, request_count, last_disbursed_at, last_reference)
        VALUES ($1, $2, $3::numeric, 1, CURRENT_TIMESTAMP, $4)
        ON CONFLICT (wallet) DO UPDATE SET
            total_wei = faucet_accounts.total_wei + EXCLUDED.total_wei,
            request_count = faucet_accounts.request_count + 1,
            last_disbursed_at = CURRENT_TIMESTAMP,
            last_origin_key = EXCLUDED.last_origin_key,
            last_reference = EXCLUDED.last_reference,
            updated_at = CURRENT_TIMESTAMP
        WHERE faucet_accounts.last_reference IS DISTINCT FROM EXCLUDED.last_reference
        RETURNING `+recordColumns, wallet, originKey, amount.String(), reference)

	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	// The guard filtered the update out: same reference already applied.
	return r.FindByWallet(ctx, wallet)
}

// Stats aggregates ledger totals across all wallets.
func (r *PostgresRepository) Stats(ctx context.Context) (Stats, error) {
	const query = `
        SELECT COUNT(*),
               COALESCE(SUM(total_wei), 0)::text,
               COALESCE(SUM(request_count), 0)
        FROM faucet_accounts`

	var (
		stats    Stats
		totalRaw string
	)
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Accounts, &totalRaw, &stats.TotalRequests); err != nil {
		return Stats{}, err
	}

	total, ok := new(big.Int).SetString(totalRaw, 10)
	if !ok {
		return Stats{}, fmt.Errorf("invalid total %q", totalRaw)
	}
	stats.TotalDisbursed = total
	return stats, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec      Record
		totalRaw string
	)
	err := row.Scan(&rec.Wallet, &rec.LastOriginKey, &totalRaw, &rec.RequestCount,
		&rec.LastDisbursedAt, &rec.LastReference, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	total, ok := new(big.Int).SetString(totalRaw, 10)
	if !ok {
		return Record{}, fmt.Errorf("invalid total %q for wallet %s", totalRaw, rec.Wallet)
	}
	rec.TotalWei = total
	rec.LastDisbursedAt = rec.LastDisbursedAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
