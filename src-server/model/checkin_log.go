package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CheckinMethod string

const (
	CHECKIN_METHOD_MANUAL = CheckinMethod("manual")
	CHECKIN_METHOD_MOBILE = CheckinMethod("mobile")
	CHECKIN_METHOD_QR     = CheckinMethod("qr")
)

func ParseCheckinMethod(s string) (CheckinMethod, error) {
	switch method := CheckinMethod(s); method {
	case CHECKIN_METHOD_MANUAL, CHECKIN_METHOD_MOBILE, CHECKIN_METHOD_QR:
		return method, nil
	default:
		return "", fmt.Errorf("ParseCheckinMethod: unknown method %q: %w", s, ErrValidation)
	}
}

type CheckinLog struct {
	bun.BaseModel `bun:"table:checkin_logs"`

	ID string `bun:"id,pk"` // required
	// unique: at most one check-in per participant, enforced by the database
	ParticipantID int64         `bun:"participant_id,notnull,unique"`
	CheckinTime   time.Time     `bun:"checkin_time,notnull"`
	CheckinMethod CheckinMethod `bun:"checkin_method,notnull,type:varchar"`
}

// Inserts a log row unless the participant already has one. inserted is
// false when the row already existed; the stored row is left untouched.
// Existence of the participant is the caller's business.
func RecordCheckin(
	ctx context.Context,
	db bun.IDB,
	participantID int64,
	method CheckinMethod,
	at time.Time,
) (log *CheckinLog, inserted bool, err error) {
	log = &CheckinLog{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		CheckinTime:   at.UTC(),
		CheckinMethod: method,
	}
	result, err := db.NewInsert().
		Model(log).
		On("CONFLICT (participant_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("RecordCheckin: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("RecordCheckin: can't read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}
	return log, true, nil
}

func FindCheckinLogByParticipant(ctx context.Context, db bun.IDB, participantID int64) (*CheckinLog, error) {
	log := new(CheckinLog)
	if err := db.NewSelect().
		Model(log).
		Where("participant_id = ?", participantID).
		Limit(1).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindCheckinLogByParticipant: %d: %w", participantID, ErrNotFound)
		}
		return nil, fmt.Errorf("FindCheckinLogByParticipant: %w", err)
	}
	return log, nil
}

// Number of distinct participants with a check-in.
func CountCheckedIn(ctx context.Context, db bun.IDB) (int, error) {
	var count int
	if err := db.NewSelect().
		Model((*CheckinLog)(nil)).
		ColumnExpr("COUNT(DISTINCT participant_id)").
		Scan(ctx, &count); err != nil {
		return 0, fmt.Errorf("CountCheckedIn: %w", err)
	}
	return count, nil
}

// Every log keyed by participant id, in one query.
func CheckinLogsByParticipant(ctx context.Context, db bun.IDB) (map[int64]CheckinLog, error) {
	logs := make([]CheckinLog, 0)
	if err := db.NewSelect().
		Model(&logs).
		Order("checkin_time ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("CheckinLogsByParticipant: %w", err)
	}
	byParticipant := make(map[int64]CheckinLog, len(logs))
	for _, log := range logs {
		if _, ok := byParticipant[log.ParticipantID]; ok {
			continue
		}
		byParticipant[log.ParticipantID] = log
	}
	return byParticipant, nil
}
