package metric

import (
	"context"
	"testing"
	"time"

	"checkin/src-server/checkin"
	"checkin/src-server/model"
	"checkin/src-server/utils"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, method model.CheckinMethod) float64 {
	t.Helper()
	m := new(dto.Metric)
	// assert, not require: also called from the Eventually goroutine
	assert.NoError(t, newCheckinTotal().WithLabelValues(string(method)).Write(m))
	return m.GetCounter().GetValue()
}

func TestCheckinTotal(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("METRIC_COLLECTION_INTERVAL", "1h")

	ctx := context.Background()
	as, err := utils.NewAppState(utils.NewConfig())
	require.NoError(t, err)
	t.Cleanup(as.GracefulShutdown)
	require.NoError(t, model.CreateSchema(ctx, as.BunDB))
	_, err = model.ReplaceParticipants(ctx, as.BunDB, []model.RawParticipant{{Name: "Alice"}, {Name: "Bob"}})
	require.NoError(t, err)

	Init(as)
	// Init twice must not panic on the already registered collectors
	Init(as)

	manualBefore := counterValue(t, model.CHECKIN_METHOD_MANUAL)
	qrBefore := counterValue(t, model.CHECKIN_METHOD_QR)

	svc := checkin.NewService(as)
	_, err = svc.CheckIn(ctx, "Alice", model.CHECKIN_METHOD_MANUAL)
	require.NoError(t, err)
	// a refused check-in isn't counted
	_, err = svc.CheckIn(ctx, "Alice", model.CHECKIN_METHOD_MANUAL)
	require.ErrorIs(t, err, model.ErrAlreadyCheckedIn)

	assert.Eventually(t, func() bool {
		return counterValue(t, model.CHECKIN_METHOD_MANUAL) == manualBefore+1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, qrBefore, counterValue(t, model.CHECKIN_METHOD_QR))
}
