// Package checkin turns a participant from "not checked in" into "checked in",
// exactly once.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/utils"

	"github.com/uptrace/bun"
)

// What a successful check-in reports back to the caller.
type Result struct {
	ParticipantID int64
	Name          string
	Organization  string
	CheckinTime   time.Time
	Method        model.CheckinMethod
}

type Service struct {
	db      bun.IDB
	metrics *utils.MetricChans
	now     func() time.Time
}

func NewService(as *utils.AppState) *Service {
	return &Service{
		db:      as.BunDB,
		metrics: as.MetricChans,
		now:     time.Now,
	}
}

// Checks in the first participant whose name matches exactly.
func (s *Service) CheckIn(ctx context.Context, name string, method model.CheckinMethod) (*Result, error) {
	if _, err := model.ParseCheckinMethod(string(method)); err != nil {
		return nil, fmt.Errorf("CheckIn: %w", err)
	}
	if utils.CleanupName(name) == "" {
		return nil, fmt.Errorf("CheckIn: name is required: %w", model.ErrValidation)
	}

	startTimer := time.Now()
	participant, err := model.FindParticipantByName(ctx, s.db, name)
	if err != nil {
		return nil, fmt.Errorf("CheckIn: %w", err)
	}
	s.metrics.ObserveRead(startTimer)

	return s.checkIn(ctx, participant, method)
}

// Same as CheckIn but keyed by id, used by the QR and admin flows.
func (s *Service) CheckInByID(ctx context.Context, participantID int64, method model.CheckinMethod) (*Result, error) {
	if _, err := model.ParseCheckinMethod(string(method)); err != nil {
		return nil, fmt.Errorf("CheckInByID: %w", err)
	}

	startTimer := time.Now()
	participant, err := model.FindParticipantByID(ctx, s.db, participantID)
	if err != nil {
		return nil, fmt.Errorf("CheckInByID: %w", err)
	}
	s.metrics.ObserveRead(startTimer)

	return s.checkIn(ctx, participant, method)
}

// Participant plus its check-in; the log is nil when not checked in yet.
func (s *Service) Status(ctx context.Context, participantID int64) (*model.Participant, *model.CheckinLog, error) {
	participant, err := model.FindParticipantByID(ctx, s.db, participantID)
	if err != nil {
		return nil, nil, fmt.Errorf("Status: %w", err)
	}
	log, err := model.FindCheckinLogByParticipant(ctx, s.db, participantID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return participant, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("Status: %w", err)
	}
	return participant, log, nil
}

// method is already validated by the callers
func (s *Service) checkIn(ctx context.Context, participant *model.Participant, method model.CheckinMethod) (*Result, error) {
	startTimer := time.Now()
	log, inserted, err := model.RecordCheckin(ctx, s.db, participant.ID, method, s.now())
	if err != nil {
		return nil, fmt.Errorf("checkIn: %w", err)
	}
	s.metrics.ObserveWrite(startTimer)
	if !inserted {
		return nil, fmt.Errorf("checkIn: %s: %w", participant.Name, model.ErrAlreadyCheckedIn)
	}

	s.metrics.ObserveCheckin(string(method))
	slog.Info("participant checked in", "id", participant.ID, "name", participant.Name, "method", method)

	return &Result{
		ParticipantID: participant.ID,
		Name:          participant.Name,
		Organization:  participant.Organization,
		CheckinTime:   log.CheckinTime,
		Method:        log.CheckinMethod,
	}, nil
}
