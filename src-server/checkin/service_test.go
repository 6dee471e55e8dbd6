package checkin_test

import (
	"context"
	"testing"
	"time"

	"checkin/src-server/checkin"
	"checkin/src-server/model"
	"checkin/src-server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, names ...string) (*checkin.Service, *utils.AppState) {
	t.Helper()

	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("TIMEZONE", "UTC")
	as, err := utils.NewAppState(utils.NewConfig())
	require.NoError(t, err)
	t.Cleanup(as.GracefulShutdown)
	require.NoError(t, model.CreateSchema(context.Background(), as.BunDB))

	records := make([]model.RawParticipant, 0, len(names))
	for _, name := range names {
		records = append(records, model.RawParticipant{Name: name, Organization: name + " Univ."})
	}
	_, err = model.ReplaceParticipants(context.Background(), as.BunDB, records)
	require.NoError(t, err)

	return checkin.NewService(as), as
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 11, 29, 9, 0, 0, 0, time.UTC)
	svc, as := newTestService(t, "Alice", "Bob")
	svc.SetClock(func() time.Time { return now })

	result, err := svc.CheckIn(ctx, "Alice", model.CHECKIN_METHOD_MANUAL)
	require.NoError(t, err)
	assert.Equal(t, "Alice", result.Name)
	assert.Equal(t, "Alice Univ.", result.Organization)
	assert.Equal(t, model.CHECKIN_METHOD_MANUAL, result.Method)
	assert.True(t, now.Equal(result.CheckinTime))

	// case: second attempt keeps the first entry
	svc.SetClock(func() time.Time { return now.Add(time.Hour) })
	_, err = svc.CheckIn(ctx, "Alice", model.CHECKIN_METHOD_MOBILE)
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)

	log, err := model.FindCheckinLogByParticipant(ctx, as.BunDB, result.ParticipantID)
	require.NoError(t, err)
	assert.Equal(t, model.CHECKIN_METHOD_MANUAL, log.CheckinMethod)
	assert.Equal(t, now.Unix(), log.CheckinTime.Unix())

	// case: unknown name creates nothing
	_, err = svc.CheckIn(ctx, "Carol", model.CHECKIN_METHOD_MANUAL)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// case: blank name
	_, err = svc.CheckIn(ctx, "  ", model.CHECKIN_METHOD_MANUAL)
	assert.ErrorIs(t, err, model.ErrValidation)

	// case: an unknown method is refused before the name is looked up
	_, err = svc.CheckIn(ctx, "Carol", model.CheckinMethod("fax"))
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.CheckIn(ctx, "Bob", model.CheckinMethod(""))
	assert.ErrorIs(t, err, model.ErrValidation)

	count, err := model.CountCheckedIn(ctx, as.BunDB)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckInByID(t *testing.T) {
	ctx := context.Background()
	svc, as := newTestService(t, "Alice", "Bob")
	participants, err := model.ListParticipants(ctx, as.BunDB)
	require.NoError(t, err)
	bob := participants[1]

	result, err := svc.CheckInByID(ctx, bob.ID, model.CHECKIN_METHOD_MOBILE)
	require.NoError(t, err)
	assert.Equal(t, "Bob", result.Name)
	assert.Equal(t, model.CHECKIN_METHOD_MOBILE, result.Method)

	_, err = svc.CheckInByID(ctx, bob.ID, model.CHECKIN_METHOD_QR)
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)

	_, err = svc.CheckInByID(ctx, bob.ID+100, model.CHECKIN_METHOD_QR)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.CheckInByID(ctx, bob.ID+100, model.CheckinMethod("fax"))
	assert.ErrorIs(t, err, model.ErrValidation)

	// case: unknown method is refused before anything is written
	_, err = svc.CheckInByID(ctx, participants[0].ID, model.CheckinMethod("fax"))
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = model.FindCheckinLogByParticipant(ctx, as.BunDB, participants[0].ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	svc, as := newTestService(t, "Alice")
	participants, err := model.ListParticipants(ctx, as.BunDB)
	require.NoError(t, err)
	alice := participants[0]

	participant, log, err := svc.Status(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", participant.Name)
	assert.Nil(t, log)

	_, err = svc.CheckInByID(ctx, alice.ID, model.CHECKIN_METHOD_QR)
	require.NoError(t, err)

	_, log, err = svc.Status(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, model.CHECKIN_METHOD_QR, log.CheckinMethod)

	_, _, err = svc.Status(ctx, alice.ID+1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
