// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/danielhkuo/pulse/models"
	"github.com/danielhkuo/pulse/store"
	"github.com/danielhkuo/pulse/telemetry"
	"github.com/danielhkuo/pulse/testutil"
)

func setupMaintainer(t *testing.T, items ...models.Item) (*Maintainer, *store.SQLStore) {
	t.Helper()
	s := testutil.SetupTestStore(t)
	for _, item := range items {
		require.NoError(t, s.UpsertItem(context.Background(), item))
	}
	return NewMaintainer(s, nil), s
}

func poll(id string, multi bool) models.Item {
	return models.Item{
		ID:      id,
		Title:   "Lunch",
		Variant: models.VariantPoll,
		Status:  models.StatusPublished,
		Poll: &models.PollSpec{
			Question:    "Where?",
			MultiSelect: multi,
			Options:     []models.Option{{ID: "A", Label: "Tacos"}, {ID: "B", Label: "Ramen"}},
		},
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		votes int64
		total int64
		want  float64
	}{
		{"zero responses", 0, 0, 0},
		{"all votes", 1, 1, 100},
		{"half", 1, 2, 50},
		{"none", 0, 4, 0},
		{"quarter", 5, 20, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.votes, tt.total); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.votes, tt.total, got, tt.want)
			}
		})
	}
}

func TestResults_ZeroResponses(t *testing.T) {
	item := poll("poll-1", false)
	m, _ := setupMaintainer(t, item)

	result, err := m.Results(context.Background(), item)
	require.NoError(t, err)
	assert.Zero(t, result.ResponseCount)
	require.Len(t, result.Options, 2)
	for _, o := range result.Options {
		assert.Zero(t, o.Votes)
		assert.Zero(t, o.Percent)
	}
}

func TestRecordResponse_Poll(t *testing.T) {
	item := poll("poll-1", true)
	m, _ := setupMaintainer(t, item)
	ctx := context.Background()

	require.NoError(t, m.RecordResponse(ctx, item, models.Payload{Selected: []string{"A", "B"}}))
	require.NoError(t, m.RecordResponse(ctx, item, models.Payload{Selected: []string{"A"}}))

	result, err := m.Results(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ResponseCount)
	assert.Equal(t, "A", result.Options[0].OptionID)
	assert.Equal(t, "Tacos", result.Options[0].Label)
	assert.Equal(t, int64(2), result.Options[0].Votes)
	assert.Equal(t, float64(100), result.Options[0].Percent)
	assert.Equal(t, int64(1), result.Options[1].Votes)
	assert.Equal(t, float64(50), result.Options[1].Percent)
}

func TestRecordResponse_Survey(t *testing.T) {
	three := 3
	note := "fine"
	item := models.Item{
		ID:      "survey-1",
		Title:   "Pulse",
		Variant: models.VariantSurvey,
		Status:  models.StatusPublished,
		Questions: []models.Question{
			{ID: "q1", Prompt: "Mood", Kind: models.KindScale, Min: 1, Max: 5},
			{ID: "q2", Prompt: "Why", Kind: models.KindFreeText},
		},
	}
	m, _ := setupMaintainer(t, item)
	ctx := context.Background()

	payload := models.Payload{Answers: map[string]models.Answer{
		"q1": {Scale: &three},
		"q2": {Text: &note},
	}}
	require.NoError(t, m.RecordResponse(ctx, item, payload))

	result, err := m.Results(ctx, item)
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, int64(1), result.Questions[0].Answers)
	assert.Equal(t, float64(100), result.Questions[1].Percent)
}

func TestConcurrentIncrements(t *testing.T) {
	item := poll("poll-1", false)
	m, _ := setupMaintainer(t, item)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.IncrementView(ctx, item.ID))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.IncrementOptionVote(ctx, item.ID, "B"))
		}()
	}
	wg.Wait()

	result, err := m.Results(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int64(n), result.ViewCount)
	assert.Equal(t, int64(n), result.Options[1].Votes)
}

func TestToggleLike(t *testing.T) {
	item := poll("poll-1", false)
	m, _ := setupMaintainer(t, item)
	ctx := context.Background()

	steps := []struct {
		name        string
		liker       string
		on          bool
		wantChanged bool
		wantCount   int64
	}{
		{"first like", "s1", true, true, 1},
		{"repeat like", "s1", true, false, 1},
		{"second liker", "s2", true, true, 2},
		{"unlike", "s1", false, true, 1},
		{"repeat unlike", "s1", false, false, 1},
		{"unlike never liked", "s3", false, false, 1},
	}

	for _, step := range steps {
		changed, err := m.ToggleLike(ctx, item.ID, step.liker, step.on)
		require.NoError(t, err, step.name)
		assert.Equal(t, step.wantChanged, changed, step.name)

		result, err := m.Results(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, step.wantCount, result.LikeCount, step.name)
	}
}

func TestWith_UsesTransaction(t *testing.T) {
	item := poll("poll-1", false)
	m, s := setupMaintainer(t, item)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Store) error {
		if err := m.With(tx).RecordResponse(ctx, item, models.Payload{Selected: []string{"A"}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	result, err := m.Results(ctx, item)
	require.NoError(t, err)
	assert.Zero(t, result.ResponseCount)
	assert.Zero(t, result.Options[0].Votes)
}

// meteredMaintainer returns a Maintainer whose tally metrics can be read
// back per counter.
func meteredMaintainer(t *testing.T, items ...models.Item) (*Maintainer, *store.SQLStore, func() map[string]int64) {
	t.Helper()
	_, s := setupMaintainer(t, items...)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })
	inst, err := telemetry.NewInstruments(mp.Meter("test"))
	require.NoError(t, err)

	collect := func() map[string]int64 {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		sums := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				data, ok := m.Data.(metricdata.Sum[int64])
				if !ok || m.Name != "pulse_tally_changes" {
					continue
				}
				for _, dp := range data.DataPoints {
					counter, _ := dp.Attributes.Value("counter")
					sums[counter.AsString()] += dp.Value
				}
			}
		}
		return sums
	}
	return NewMaintainer(s, inst), s, collect
}

func TestToggleLike_RecordsSignedDelta(t *testing.T) {
	item := poll("poll-1", false)
	m, _, collect := meteredMaintainer(t, item)
	ctx := context.Background()

	_, err := m.ToggleLike(ctx, item.ID, "s1", true)
	require.NoError(t, err)
	_, err = m.ToggleLike(ctx, item.ID, "s2", true)
	require.NoError(t, err)
	_, err = m.ToggleLike(ctx, item.ID, "s1", false)
	require.NoError(t, err)
	// No-op toggles record nothing
	_, err = m.ToggleLike(ctx, item.ID, "s1", false)
	require.NoError(t, err)

	result, err := m.Results(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, result.LikeCount, collect()["like_count"])
	assert.Equal(t, int64(1), result.LikeCount)
}

func TestWith_RecordsMetricsOnlyAfterFlush(t *testing.T) {
	item := poll("poll-1", false)
	m, s, collect := meteredMaintainer(t, item)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Store) error {
		if err := m.With(tx).RecordResponse(ctx, item, models.Payload{Selected: []string{"A"}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, collect(), "rolled back counters must not be recorded")

	var counted *Maintainer
	err = s.WithTx(ctx, func(tx store.Store) error {
		counted = m.With(tx)
		return counted.RecordResponse(ctx, item, models.Payload{Selected: []string{"A"}})
	})
	require.NoError(t, err)
	assert.Empty(t, collect())

	counted.Flush(ctx)
	sums := collect()
	assert.Equal(t, int64(1), sums["response_count"])
	assert.Equal(t, int64(1), sums["vote_count"])

	// Flushing twice records nothing more
	counted.Flush(ctx)
	assert.Equal(t, int64(1), collect()["response_count"])
}
