package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"checkin/src-server/utils"

	"github.com/uptrace/bun"
)

// rows per INSERT when loading a roster
const insertBatchSize = 500

type Participant struct {
	bun.BaseModel `bun:"table:participants"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"` // required
	Email        string    `bun:"email"`
	Phone        string    `bun:"phone"`
	Organization string    `bun:"organization"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// One row read from a roster spreadsheet, before validation.
type RawParticipant struct {
	Name         string
	Email        string
	Phone        string
	Organization string
}

// Deletes every participant and check-in log, then loads records. Rows whose
// cleaned name is blank (or a "nan" placeholder) are skipped. Everything runs
// in one transaction so a failure keeps the previous roster.
func ReplaceParticipants(ctx context.Context, db *bun.DB, records []RawParticipant) (int, error) {
	now := time.Now().UTC()
	participants := make([]Participant, 0, len(records))
	for _, record := range records {
		name := utils.CleanupName(record.Name)
		if name == "" {
			continue
		}
		participants = append(participants, Participant{
			Name:         name,
			Email:        utils.CleanupName(record.Email),
			Phone:        utils.CleanupName(record.Phone),
			Organization: utils.CleanupName(record.Organization),
			CreatedAt:    now,
		})
	}

	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*CheckinLog)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return fmt.Errorf("can't delete check-in logs: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*Participant)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return fmt.Errorf("can't delete participants: %w", err)
		}

		for start := 0; start < len(participants); start += insertBatchSize {
			end := min(start+insertBatchSize, len(participants))
			batch := participants[start:end]
			if _, err := tx.NewInsert().
				Model(&batch).
				Exec(ctx); err != nil {
				return fmt.Errorf("can't insert participants: %w", err)
			}
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("ReplaceParticipants: %w", err)
	}

	return len(participants), nil
}

// Exact match on the cleaned name. Names are not unique, the lowest id wins.
func FindParticipantByName(ctx context.Context, db bun.IDB, name string) (*Participant, error) {
	name = utils.CleanupName(name)
	if name == "" {
		return nil, fmt.Errorf("FindParticipantByName: name is blank: %w", ErrValidation)
	}

	participant := new(Participant)
	if err := db.NewSelect().
		Model(participant).
		Where("name = ?", name).
		Order("id ASC").
		Limit(1).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindParticipantByName: %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("FindParticipantByName: %w", err)
	}
	return participant, nil
}

func FindParticipantByID(ctx context.Context, db bun.IDB, id int64) (*Participant, error) {
	participant := new(Participant)
	if err := db.NewSelect().
		Model(participant).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindParticipantByID: %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("FindParticipantByID: %w", err)
	}
	return participant, nil
}

// Case-sensitive substring match on name, email or organization. instr is
// used instead of LIKE because sqlite's LIKE folds ASCII case.
func SearchParticipants(ctx context.Context, db bun.IDB, query string) ([]Participant, error) {
	participants := make([]Participant, 0)
	if err := db.NewSelect().
		Model(&participants).
		Where("instr(name, ?) > 0", query).
		WhereOr("instr(email, ?) > 0", query).
		WhereOr("instr(organization, ?) > 0", query).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("SearchParticipants: %w", err)
	}
	return participants, nil
}

func ListParticipants(ctx context.Context, db bun.IDB) ([]Participant, error) {
	participants := make([]Participant, 0)
	if err := db.NewSelect().
		Model(&participants).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("ListParticipants: %w", err)
	}
	return participants, nil
}

func CountParticipants(ctx context.Context, db bun.IDB) (int, error) {
	count, err := db.NewSelect().
		Model((*Participant)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountParticipants: %w", err)
	}
	return count, nil
}
