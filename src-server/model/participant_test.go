package model_test

import (
	"context"
	"testing"
	"time"

	"checkin/src-server/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceParticipants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	count, err := model.ReplaceParticipants(ctx, db, []model.RawParticipant{
		{Name: "Alice", Email: "alice@example.com", Organization: "NTU"},
		{Name: "Bob", Phone: " 0912345678 "},
		{Name: ""},
		{Name: "   "},
		{Name: "nan"},
		{Name: "NaN", Organization: "ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	participants, err := model.ListParticipants(ctx, db)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "Alice", participants[0].Name)
	assert.Equal(t, "alice@example.com", participants[0].Email)
	assert.Equal(t, "NTU", participants[0].Organization)
	assert.Equal(t, "Bob", participants[1].Name)
	assert.Equal(t, "0912345678", participants[1].Phone)
	assert.Less(t, participants[0].ID, participants[1].ID)
	assert.False(t, participants[0].CreatedAt.IsZero())

	// case: a second load wipes the roster and its check-ins
	_, inserted, err := model.RecordCheckin(ctx, db, participants[0].ID, model.CHECKIN_METHOD_MANUAL, time.Now())
	require.NoError(t, err)
	require.True(t, inserted)

	count, err = model.ReplaceParticipants(ctx, db, []model.RawParticipant{{Name: "Carol"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	participants, err = model.ListParticipants(ctx, db)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Carol", participants[0].Name)

	checkedIn, err := model.CountCheckedIn(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, checkedIn)
}

func TestReplaceParticipantsEmpty(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	loadRoster(t, db, "Alice")

	count, err := model.ReplaceParticipants(ctx, db, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	total, err := model.CountParticipants(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReplaceParticipantsRollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	loadRoster(t, db, "Alice", "Bob")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := model.ReplaceParticipants(cancelled, db, []model.RawParticipant{{Name: "Carol"}})
	require.Error(t, err)

	participants, err := model.ListParticipants(ctx, db)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "Alice", participants[0].Name)
}

func TestFindParticipantByName(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	participants := loadRoster(t, db, "Alice", "Bob", "Alice")

	// case: duplicates resolve to the first row
	participant, err := model.FindParticipantByName(ctx, db, "Alice")
	require.NoError(t, err)
	assert.Equal(t, participants[0].ID, participant.ID)

	// case: surrounding spaces are ignored
	participant, err = model.FindParticipantByName(ctx, db, "  Bob ")
	require.NoError(t, err)
	assert.Equal(t, participants[1].ID, participant.ID)

	// case: exact match only
	_, err = model.FindParticipantByName(ctx, db, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = model.FindParticipantByName(ctx, db, "Ali")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = model.FindParticipantByName(ctx, db, " ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestFindParticipantByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	participants := loadRoster(t, db, "Alice")

	participant, err := model.FindParticipantByID(ctx, db, participants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", participant.Name)

	_, err = model.FindParticipantByID(ctx, db, participants[0].ID+100)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSearchParticipants(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := model.ReplaceParticipants(ctx, db, []model.RawParticipant{
		{Name: "Alice Wang", Email: "alice@ntu.edu.tw", Organization: "NTU"},
		{Name: "Bob", Email: "bob@nctu.edu.tw", Organization: "NCTU"},
		{Name: "Carol", Email: "carol@example.com", Organization: "Acme"},
	})
	require.NoError(t, err)

	names := func(participants []model.Participant) []string {
		names := make([]string, 0, len(participants))
		for _, participant := range participants {
			names = append(names, participant.Name)
		}
		return names
	}

	// case: matches on organization and email, each participant once
	results, err := model.SearchParticipants(ctx, db, "NTU")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Wang"}, names(results))

	results, err = model.SearchParticipants(ctx, db, "edu.tw")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Wang", "Bob"}, names(results))

	// case: case sensitive
	results, err = model.SearchParticipants(ctx, db, "alice wang")
	require.NoError(t, err)
	assert.Empty(t, results)

	// case: matches on any field
	results, err = model.SearchParticipants(ctx, db, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Carol"}, names(results))

	results, err = model.SearchParticipants(ctx, db, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
