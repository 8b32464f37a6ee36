package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/algomentor/internal/types"
)

// ErrEmailTaken is returned when a profile with the same email exists.
var ErrEmailTaken = errors.New("email already registered")

const uniqueViolation = "23505"

// Profile is a stored account with its platform handles.
type Profile struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Handles      types.Handles
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProfile holds the fields needed to create a profile.
type NewProfile struct {
	Username     string
	Email        string
	PasswordHash string
	Handles      types.Handles
}

// StoredFeedback is the last generated daily report for a profile.
type StoredFeedback struct {
	Feedback    *types.DailyFeedback
	GeneratedAt time.Time
}

// SameUTCDay reports whether the report was generated on now's UTC date.
func (f *StoredFeedback) SameUTCDay(now time.Time) bool {
	if f == nil || f.Feedback == nil {
		return false
	}
	y1, m1, d1 := f.GeneratedAt.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

const profileColumns = `id, username, email, password_hash,
	leetcode_username, codeforces_username, codechef_username,
	created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash,
		&p.Handles.LeetCode, &p.Handles.Codeforces, &p.Handles.CodeChef,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a profile and returns its ID
func (db *DB) CreateProfile(ctx context.Context, in NewProfile) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO profiles (username, email, password_hash,
			leetcode_username, codeforces_username, codechef_username)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.Username, normalizeEmail(in.Email), in.PasswordHash,
		in.Handles.LeetCode, in.Handles.Codeforces, in.Handles.CodeChef,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return id, nil
}

// GetProfile retrieves a profile by ID. Returns nil, nil when not found.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetProfileByEmail retrieves a profile by email, case-insensitively.
// Returns nil, nil when not found.
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return p, nil
}

// CheckEmailExists reports whether a profile uses email.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE LOWER(email) = $1)`,
		normalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UpdateHandles replaces the platform handles on a profile.
func (db *DB) UpdateHandles(ctx context.Context, id uuid.UUID, h types.Handles) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE profiles
		 SET leetcode_username = $2, codeforces_username = $3, codechef_username = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, h.LeetCode, h.Codeforces, h.CodeChef,
	)
	if err != nil {
		return fmt.Errorf("failed to update handles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetDailyFeedback returns the stored report, or nil when none was saved.
func (db *DB) GetDailyFeedback(ctx context.Context, id uuid.UUID) (*StoredFeedback, error) {
	var raw []byte
	var at *time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT ai_feedback, last_feedback_generated FROM profiles WHERE id = $1`, id,
	).Scan(&raw, &at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	if raw == nil || at == nil {
		return nil, nil
	}

	var fb types.DailyFeedback
	if err := json.Unmarshal(raw, &fb); err != nil {
		return nil, fmt.Errorf("failed to decode stored feedback: %w", err)
	}
	return &StoredFeedback{Feedback: &fb, GeneratedAt: *at}, nil
}

// SaveDailyFeedback stores the report and its generation time.
func (db *DB) SaveDailyFeedback(ctx context.Context, id uuid.UUID, fb *types.DailyFeedback, at time.Time) error {
	raw, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE profiles SET ai_feedback = $2, last_feedback_generated = $3, updated_at = NOW() WHERE id = $1`,
		id, raw, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteProfile removes a profile.
func (db *DB) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
