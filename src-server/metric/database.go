package metric

import (
	"context"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/utils"
)

// latency of a query that touches the index but returns nothing
func database(ctx context.Context, as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.BunDB.NewSelect().
		Model((*model.Participant)(nil)).
		Where("id = ?", -1).
		Exists(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
