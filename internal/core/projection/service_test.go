package projection

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/topnum/internal/core/journal"
	"github.com/charleschow/topnum/internal/core/probability"
	"github.com/charleschow/topnum/internal/core/records"
	"github.com/charleschow/topnum/internal/telemetry"
)

type memJournal struct {
	entries []journal.Entry
	err     error
}

func (m *memJournal) Record(_ context.Context, e journal.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func testRecords(t *testing.T) *records.Table {
	t.Helper()
	base, err := records.Default()
	require.NoError(t, err)
	players, err := records.Parse([]byte("players:\n  \"Luka Doncic\":\n    season_high: 40\n"))
	require.NoError(t, err)
	return base.Merge(players)
}

func midGame() probability.Observation {
	return probability.Observation{CurrentPoints: 20, MinutesPlayed: 24, RemainingMinutes: 12}
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	_, err := NewService(probability.Config{}, nil, nil)
	assert.True(t, errors.Is(err, probability.ErrInvalidConfig))
}

func TestEvaluateFromRecords(t *testing.T) {
	j := &memJournal{}
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), j)
	require.NoError(t, err)

	before := telemetry.Metrics.EstimatesComputed.Value()
	eval, err := svc.Evaluate(context.Background(), Request{Player: "luka doncic", Team: "LAL", Observation: midGame()})
	require.NoError(t, err)

	assert.Equal(t, probability.Thresholds{SeasonHigh: 40, AllTimeHigh: 100}, eval.Thresholds)
	assert.Equal(t, 20, eval.Projection.SeasonHigh.Needed)
	assert.Equal(t, 80, eval.Projection.AllTime.Needed)
	assert.Less(t, eval.Result.SeasonHigh, 0.01)
	assert.Equal(t, eval.Projection.Result(), eval.Result)
	assert.Equal(t, before+1, telemetry.Metrics.EstimatesComputed.Value())

	require.Len(t, j.entries, 1)
	assert.Equal(t, "luka doncic", j.entries[0].Player)
	assert.Equal(t, "LAL", j.entries[0].Team)
	assert.Equal(t, eval.Projection, j.entries[0].Projection)
	assert.False(t, j.entries[0].RecordedAt.IsZero())
}

func TestEvaluateExplicitThresholds(t *testing.T) {
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), nil)
	require.NoError(t, err)

	th := probability.Thresholds{SeasonHigh: 40, AllTimeHigh: 70}
	eval, err := svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame(), Thresholds: &th})
	require.NoError(t, err)
	assert.Equal(t, th, eval.Thresholds)
	assert.Equal(t, probability.EstimateDefault(midGame(), th), eval.Result)
}

func TestEvaluateUnknownPlayer(t *testing.T) {
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), nil)
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), Request{Player: "Nobody", Observation: midGame()})
	assert.True(t, errors.Is(err, ErrUnknownThresholds))

	noRecords, err := NewService(probability.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	_, err = noRecords.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame()})
	assert.True(t, errors.Is(err, ErrUnknownThresholds))
}

func TestEvaluateInvalidObservation(t *testing.T) {
	j := &memJournal{}
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), j)
	require.NoError(t, err)

	before := telemetry.Metrics.RejectedRequests.Value()
	obs := probability.Observation{CurrentPoints: math.NaN(), MinutesPlayed: 10, RemainingMinutes: 10}
	_, err = svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: obs})
	assert.True(t, errors.Is(err, probability.ErrInvalidObservation))
	assert.Equal(t, before+1, telemetry.Metrics.RejectedRequests.Value())
	assert.Empty(t, j.entries)
}

func TestEvaluateInvalidThresholds(t *testing.T) {
	j := &memJournal{}
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), j)
	require.NoError(t, err)

	for _, high := range []float64{math.NaN(), math.Inf(1), -10} {
		before := telemetry.Metrics.RejectedRequests.Value()
		th := probability.Thresholds{SeasonHigh: high, AllTimeHigh: high}
		_, err := svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame(), Thresholds: &th})
		assert.True(t, errors.Is(err, probability.ErrInvalidThresholds), "high=%v", high)
		assert.Equal(t, before+1, telemetry.Metrics.RejectedRequests.Value())
	}
	assert.Empty(t, j.entries)
}

func TestEvaluateHugeThresholdNearZero(t *testing.T) {
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), nil)
	require.NoError(t, err)

	th := probability.Thresholds{SeasonHigh: 1e19, AllTimeHigh: 1e19}
	eval, err := svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame(), Thresholds: &th})
	require.NoError(t, err)
	assert.InDelta(t, 0, eval.Result.SeasonHigh, 1e-12)
	assert.InDelta(t, 0, eval.Result.AllTime, 1e-12)
}

func TestEvaluateDegenerate(t *testing.T) {
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), nil)
	require.NoError(t, err)

	before := telemetry.Metrics.DegenerateEstimates.Value()
	obs := probability.Observation{CurrentPoints: 0, MinutesPlayed: 0, RemainingMinutes: 48}
	eval, err := svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: obs})
	require.NoError(t, err)
	assert.Equal(t, probability.Result{}, eval.Result)
	assert.Equal(t, before+1, telemetry.Metrics.DegenerateEstimates.Value())
}

func TestEvaluateCountsNormalApproximations(t *testing.T) {
	cfg := probability.Config{PriorRatePerMinute: 0.65, PriorMinutes: 12, MaxPoissonTerms: 10}
	svc, err := NewService(cfg, testRecords(t), nil)
	require.NoError(t, err)

	before := telemetry.Metrics.NormalApproximations.Value()
	_, err = svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame()})
	require.NoError(t, err)
	// Both legs need more than 10 points.
	assert.Equal(t, before+2, telemetry.Metrics.NormalApproximations.Value())
}

func TestEvaluateJournalFailureIsNotFatal(t *testing.T) {
	j := &memJournal{err: errors.New("disk full")}
	svc, err := NewService(probability.DefaultConfig(), testRecords(t), j)
	require.NoError(t, err)

	before := telemetry.Metrics.JournalErrors.Value()
	_, err = svc.Evaluate(context.Background(), Request{Player: "Luka Doncic", Observation: midGame()})
	require.NoError(t, err)
	assert.Equal(t, before+1, telemetry.Metrics.JournalErrors.Value())
}

func TestEvaluateWithSQLiteJournal(t *testing.T) {
	ctx := context.Background()
	store, err := journal.OpenStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	svc, err := NewService(probability.DefaultConfig(), testRecords(t), store)
	require.NoError(t, err)

	eval, err := svc.Evaluate(ctx, Request{Player: "Luka Doncic", GameID: "0022500001", Observation: midGame()})
	require.NoError(t, err)

	got, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0022500001", got[0].GameID)
	assert.Equal(t, eval.Result, got[0].Projection.Result())
}
