package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PartyRepo keeps saved-party slots in the saved_parties table.
type PartyRepo struct {
	db *DB
}

func NewPartyRepo(db *DB) *PartyRepo {
	return &PartyRepo{db: db}
}

// SaveSlot upserts a slot snapshot.
func (r *PartyRepo) SaveSlot(ctx context.Context, slot int32, actorIDs []int32) error {
	if actorIDs == nil {
		actorIDs = []int32{}
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO saved_parties (slot_id, actor_ids, saved_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (slot_id) DO UPDATE SET actor_ids = EXCLUDED.actor_ids, saved_at = EXCLUDED.saved_at`,
		slot, actorIDs,
	)
	if err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	return nil
}

// LoadSlot returns a slot snapshot; ok is false when the slot was never saved.
func (r *PartyRepo) LoadSlot(ctx context.Context, slot int32) ([]int32, bool, error) {
	var ids []int32
	err := r.db.Pool.QueryRow(ctx,
		`SELECT actor_ids FROM saved_parties WHERE slot_id = $1`, slot,
	).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load slot %d: %w", slot, err)
	}
	return ids, true, nil
}

func (r *PartyRepo) DeleteSlot(ctx context.Context, slot int32) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM saved_parties WHERE slot_id = $1`, slot)
	return err
}

// Slots lists saved slot IDs in ascending order.
func (r *PartyRepo) Slots(ctx context.Context) ([]int32, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT slot_id FROM saved_parties ORDER BY slot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (r *PartyRepo) Close() error {
	r.db.Close()
	return nil
}
