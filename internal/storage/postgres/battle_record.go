package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/tallgrass/internal/game/history"
)

// ErrRecordNotFound is returned when a battle record lookup yields no results.
var ErrRecordNotFound = errors.New("battle record not found")

// ErrRecordExists is returned when a record with the same id was already stored.
var ErrRecordExists = errors.New("battle record already exists")

const recordColumns = `id, trainer, player_species, player_level, enemy_species, enemy_level,
	player_won, turns, seed, started_at, finished_at`

// BattleRecordRepository persists finished-battle records.
// It implements history.Store.
type BattleRecordRepository struct {
	db *pgxpool.Pool
}

var _ history.Store = (*BattleRecordRepository)(nil)

// NewBattleRecordRepository creates a BattleRecordRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRecordRepository(db *pgxpool.Pool) *BattleRecordRepository {
	return &BattleRecordRepository{db: db}
}

// Record inserts rec.
//
// Precondition: rec.ID must not be uuid.Nil.
// Postcondition: Returns ErrRecordExists if rec.ID was already stored.
func (r *BattleRecordRepository) Record(ctx context.Context, rec history.Record) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("inserting battle record: id must be set")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO battle_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.Trainer, rec.PlayerSpecies, rec.PlayerLevel, rec.EnemySpecies, rec.EnemyLevel,
		rec.PlayerWon, rec.Turns, rec.Seed, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("inserting battle record: %w", err)
	}
	return nil
}

// GetByID retrieves one record.
//
// Postcondition: Returns the Record or ErrRecordNotFound.
func (r *BattleRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (history.Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM battle_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return history.Record{}, ErrRecordNotFound
		}
		return history.Record{}, fmt.Errorf("querying battle record: %w", err)
	}
	return rec, nil
}

// ListByTrainer returns up to limit records for trainer, newest first.
// A limit <= 0 returns every record.
func (r *BattleRecordRepository) ListByTrainer(ctx context.Context, trainer string, limit int) ([]history.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM battle_records WHERE trainer = $1 ORDER BY finished_at DESC`
	args := []any{trainer}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing battle records: %w", err)
	}
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning battle record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle records: %w", err)
	}
	return out, nil
}

// Summary tallies wins and losses for trainer.
func (r *BattleRecordRepository) Summary(ctx context.Context, trainer string) (history.Summary, error) {
	var s history.Summary
	err := r.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE player_won),
		   COUNT(*) FILTER (WHERE NOT player_won)
		 FROM battle_records WHERE trainer = $1`,
		trainer,
	).Scan(&s.Wins, &s.Losses)
	if err != nil {
		return history.Summary{}, fmt.Errorf("summarising battle records: %w", err)
	}
	return s, nil
}

func scanRecord(row pgx.Row) (history.Record, error) {
	var rec history.Record
	err := row.Scan(
		&rec.ID, &rec.Trainer, &rec.PlayerSpecies, &rec.PlayerLevel, &rec.EnemySpecies, &rec.EnemyLevel,
		&rec.PlayerWon, &rec.Turns, &rec.Seed, &rec.StartedAt, &rec.FinishedAt,
	)
	return rec, err
}
