package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/syncrow"
)

// RemoteStoreService backs the remote record store: the server-side
// replica every device reconciles against. Rows are keyed by (user,
// date) with idempotent upsert semantics so a device can blindly PUT
// its latest state for a date.
type RemoteStoreService struct {
	db *pgxpool.Pool
}

func NewRemoteStoreService(db *pgxpool.Pool) *RemoteStoreService {
	return &RemoteStoreService{db: db}
}

// EnsureSchema creates the backing tables if they do not exist yet.
func (s *RemoteStoreService) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		clerk_id TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS daily_records (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		fasted BOOLEAN NOT NULL DEFAULT FALSE,
		quran BOOLEAN NOT NULL DEFAULT FALSE,
		dhikr BOOLEAN NOT NULL DEFAULT FALSE,
		prayer BOOLEAN NOT NULL DEFAULT FALSE,
		masjid BOOLEAN NOT NULL DEFAULT FALSE,
		details TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, date)
	);
	`
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// FetchAll returns every stored row for the authenticated identity,
// sorted by date ascending.
func (s *RemoteStoreService) FetchAll(ctx context.Context, clerkID string) ([]syncrow.Row, error) {
	userID, err := s.ensureUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT date, fasted, quran, dhikr, prayer, masjid, COALESCE(details, '')
	FROM daily_records
	WHERE user_id = $1
	ORDER BY date
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	defer rows.Close()

	out := []syncrow.Row{}
	for rows.Next() {
		var row syncrow.Row
		var date time.Time
		if err := rows.Scan(&date, &row.Fasted, &row.Quran, &row.Dhikr, &row.Prayer, &row.Masjid, &row.Details); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		row.Date = date.Format("2006-01-02")
		out = append(out, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return out, nil
}

// UpsertRow replaces the stored row for (user, date) with the body the
// device pushed. Last push wins; the login pull/merge on each device is
// what fans the union back out.
func (s *RemoteStoreService) UpsertRow(ctx context.Context, clerkID string, row syncrow.Row) error {
	userID, err := s.ensureUser(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO daily_records (user_id, date, fasted, quran, dhikr, prayer, masjid, details, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NOW())
	ON CONFLICT (user_id, date)
	DO UPDATE SET
		fasted = $3,
		quran = $4,
		dhikr = $5,
		prayer = $6,
		masjid = $7,
		details = NULLIF($8, ''),
		updated_at = NOW()
	`

	_, err = s.db.Exec(ctx, query, userID, row.Date, row.Fasted, row.Quran, row.Dhikr, row.Prayer, row.Masjid, row.Details)
	if err != nil {
		return fmt.Errorf("failed to upsert record for %s: %w", row.Date, err)
	}
	return nil
}

func (s *RemoteStoreService) ensureUser(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up user: %w", err)
	}

	userID = uuid.New()
	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, clerk_id) VALUES ($1, $2) ON CONFLICT (clerk_id) DO NOTHING`,
		userID, clerkID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Re-read in case a concurrent request won the insert race.
	if err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}
