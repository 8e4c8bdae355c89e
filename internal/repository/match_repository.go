package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codeopoly/codeopoly-server-go/internal/game"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a match.
var ErrSnapshotNotFound = errors.New("match snapshot not found")

const matchSchema = `
CREATE TABLE IF NOT EXISTS match_snapshots (
    match_id   TEXT PRIMARY KEY,
    room_code  TEXT NOT NULL,
    status     TEXT NOT NULL,
    checksum   TEXT NOT NULL,
    record     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS match_snapshots_status_idx ON match_snapshots (status);
`

// MatchRepository stores match snapshots as JSONB records.
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a match repository.
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (r *MatchRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Pool().Exec(ctx, matchSchema)
	if err != nil {
		return fmt.Errorf("create match schema: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the latest snapshot of a match.
func (r *MatchRepository) SaveSnapshot(ctx context.Context, record game.MatchRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", record.MatchID, err)
	}

	_, err = r.db.Pool().Exec(ctx, `
		INSERT INTO match_snapshots (match_id, room_code, status, checksum, record, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (match_id) DO UPDATE SET
			status = EXCLUDED.status,
			checksum = EXCLUDED.checksum,
			record = EXCLUDED.record,
			updated_at = now()
	`, record.MatchID, record.RoomCode, record.Status, record.Checksum, payload)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", record.MatchID, err)
	}
	return nil
}

// LoadSnapshot fetches one match snapshot.
func (r *MatchRepository) LoadSnapshot(ctx context.Context, matchID string) (game.MatchRecord, error) {
	var payload []byte
	err := r.db.Pool().QueryRow(ctx,
		`SELECT record FROM match_snapshots WHERE match_id = $1`, matchID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.MatchRecord{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, matchID)
	}
	if err != nil {
		return game.MatchRecord{}, fmt.Errorf("load snapshot %s: %w", matchID, err)
	}

	var record game.MatchRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return game.MatchRecord{}, fmt.Errorf("unmarshal snapshot %s: %w", matchID, err)
	}
	return record, nil
}

// LoadActiveSnapshots returns every snapshot whose match was still
// running, for restore at startup.
func (r *MatchRepository) LoadActiveSnapshots(ctx context.Context) ([]game.MatchRecord, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT record FROM match_snapshots WHERE status = 'ACTIVE' ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("query active snapshots: %w", err)
	}
	defer rows.Close()

	var records []game.MatchRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var record game.MatchRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteSnapshot removes a finished match's snapshot.
func (r *MatchRepository) DeleteSnapshot(ctx context.Context, matchID string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM match_snapshots WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", matchID, err)
	}
	return nil
}
