package model_test

import (
	"context"
	"database/sql"
	"testing"

	"checkin/src-server/model"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a different database
	db.SetMaxOpenConns(1)

	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })

	require.NoError(t, model.CreateSchema(context.Background(), bundb))
	return bundb
}

func loadRoster(t *testing.T, db *bun.DB, names ...string) []model.Participant {
	t.Helper()

	records := make([]model.RawParticipant, 0, len(names))
	for _, name := range names {
		records = append(records, model.RawParticipant{Name: name})
	}
	_, err := model.ReplaceParticipants(context.Background(), db, records)
	require.NoError(t, err)

	participants, err := model.ListParticipants(context.Background(), db)
	require.NoError(t, err)
	return participants
}
