package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/sirupsen/logrus"
)

// PostgresStore persists user actions to a Postgres database
type PostgresStore struct {
	db *sql.DB
}

// Ensure PostgresStore implements UserActionStore
var _ UserActionStore = (*PostgresStore)(nil)

// NewPostgresStore connects to Postgres and prepares the user-action tables
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure tables exist: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) ensureTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT,
			avatar_url TEXT,
			last_sign_in TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_actions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// InsertAction appends one row to the user-action log with a server-side
// timestamp
func (s *PostgresStore) InsertAction(ctx context.Context, userID, actionType, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_actions (user_id, type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		userID, actionType, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user action: %w", err)
	}

	logrus.Debugf("Recorded user action %s for %s", actionType, userID)
	return nil
}

// UpsertUser creates or refreshes the user row keyed by email. Called on
// every successful sign-in.
func (s *PostgresStore) UpsertUser(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, last_sign_in)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			last_sign_in = now()`,
		session.ID, session.Email, session.Name, session.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", session.Email, err)
	}

	return nil
}

// Close releases the database connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
