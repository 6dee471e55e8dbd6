package model_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"checkin/src-server/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckinMethod(t *testing.T) {
	for _, s := range []string{"manual", "mobile", "qr"} {
		method, err := model.ParseCheckinMethod(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(method))
	}

	_, err := model.ParseCheckinMethod("carrier pigeon")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = model.ParseCheckinMethod("")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRecordCheckin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	participants := loadRoster(t, db, "Alice", "Bob")
	alice := participants[0]

	at := time.Date(2025, 11, 29, 9, 30, 0, 0, time.UTC)
	log, inserted, err := model.RecordCheckin(ctx, db, alice.ID, model.CHECKIN_METHOD_QR, at)
	require.NoError(t, err)
	require.True(t, inserted)
	assert.Equal(t, alice.ID, log.ParticipantID)
	assert.NotEmpty(t, log.ID)

	// case: second insert is ignored, the first row is kept as is
	log, inserted, err = model.RecordCheckin(ctx, db, alice.ID, model.CHECKIN_METHOD_MANUAL, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Nil(t, log)

	stored, err := model.FindCheckinLogByParticipant(ctx, db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CHECKIN_METHOD_QR, stored.CheckinMethod)
	assert.Equal(t, at.Unix(), stored.CheckinTime.Unix())

	// case: nobody else is affected
	_, err = model.FindCheckinLogByParticipant(ctx, db, participants[1].ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	count, err := model.CountCheckedIn(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordCheckinConcurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := loadRoster(t, db, "Alice")[0]

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertedCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, inserted, err := model.RecordCheckin(ctx, db, alice.ID, model.CHECKIN_METHOD_MOBILE, time.Now())
			if err != nil {
				t.Error(err)
				return
			}
			if inserted {
				mu.Lock()
				insertedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, insertedCount)
	rows, err := db.NewSelect().
		Model((*model.CheckinLog)(nil)).
		Where("participant_id = ?", alice.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestCheckinLogsByParticipant(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	participants := loadRoster(t, db, "Alice", "Bob", "Carol")

	for _, participant := range []model.Participant{participants[0], participants[2]} {
		_, _, err := model.RecordCheckin(ctx, db, participant.ID, model.CHECKIN_METHOD_MANUAL, time.Now())
		require.NoError(t, err)
	}

	logs, err := model.CheckinLogsByParticipant(ctx, db)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Contains(t, logs, participants[0].ID)
	assert.NotContains(t, logs, participants[1].ID)
	assert.Contains(t, logs, participants[2].ID)

	count, err := model.CountCheckedIn(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
