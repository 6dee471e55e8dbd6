package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// An authenticated admin browser. The secret travels in a cookie.
type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	Secret    string    `bun:"secret,pk"`          // required
	CreatedAt time.Time `bun:"created_at,notnull"` // required
	IpAddress string    `bun:"ip_address,notnull"` // required
	UserAgent string    `bun:"user_agent"`
}

func CreateSession(ctx context.Context, db bun.IDB, ipAddress, userAgent string) (*Session, error) {
	session := &Session{
		Secret:    uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		IpAddress: ipAddress,
		UserAgent: userAgent,
	}
	if _, err := db.NewInsert().
		Model(session).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("CreateSession: %w", err)
	}
	return session, nil
}

// Returns the session for secret if it exists and is younger than maxAge.
// Expired sessions are deleted on the way.
func FindValidSession(ctx context.Context, db bun.IDB, secret string, maxAge time.Duration) (*Session, error) {
	if secret == "" {
		return nil, fmt.Errorf("FindValidSession: secret is blank: %w", ErrAuth)
	}

	session := new(Session)
	if err := db.NewSelect().
		Model(session).
		Where("secret = ?", secret).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindValidSession: unknown session: %w", ErrAuth)
		}
		return nil, fmt.Errorf("FindValidSession: %w", err)
	}

	if session.CreatedAt.Add(maxAge).Before(time.Now().UTC()) {
		if err := DeleteSession(ctx, db, secret); err != nil {
			slog.Warn("can't delete expired session", "where", "model/session.go", "error", err)
		}
		return nil, fmt.Errorf("FindValidSession: session expired: %w", ErrAuth)
	}
	return session, nil
}

func IsAuthenticated(ctx context.Context, db bun.IDB, secret string, maxAge time.Duration) (bool, error) {
	if _, err := FindValidSession(ctx, db, secret, maxAge); err != nil {
		if errors.Is(err, ErrAuth) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func DeleteSession(ctx context.Context, db bun.IDB, secret string) error {
	if _, err := db.NewDelete().
		Model((*Session)(nil)).
		Where("secret = ?", secret).
		Exec(ctx); err != nil {
		return fmt.Errorf("DeleteSession: %w", err)
	}
	return nil
}
