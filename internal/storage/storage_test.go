package storage

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fuelcycle/internal/dynamo"
	"github.com/san-kum/fuelcycle/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Names: []string{"Fueling System", "BB"},
		Trajectory: sim.Trajectory{
			Times:      []float64{0, 10, 20},
			States:     []dynamo.State{{1, 0}, {0.9, 0.05}, {0.85, 0.1}},
			DPA:        []float64{0, 1e-6, 2e-6},
			Traps:      []float64{0, 5e-8, 1e-7},
			StepsTaken: 2,
		},
		DoublingTime: math.NaN(),
		TBR:          1.1,
		IStartup:     1.25,
		Outcome:      sim.SlowDoubling,
		Attempts: []sim.Attempt{
			{Number: 1, TBR: 1.1, IStartup: 1, DoublingTime: math.NaN(), MinMargin: -0.25, Steps: 2, Outcome: sim.ReserveDeficit},
			{Number: 2, TBR: 1.1, IStartup: 1.25, DoublingTime: 0.4, MinMargin: 0, Steps: 2, Outcome: sim.Accepted},
		},
		Metrics: map[string]float64{"min_inventory_Fueling System": 0.85, "bad": math.Inf(1)},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "runs"))
	require.NoError(t, store.Init())

	id, err := store.Save("baseline", sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "baseline_"))

	meta, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "baseline", meta.Scenario)
	assert.Equal(t, []string{"Fueling System", "BB"}, meta.Components)
	assert.Nil(t, meta.DoublingTime)
	require.NotNil(t, meta.TBR)
	assert.InDelta(t, 1.1, *meta.TBR, 1e-12)
	assert.Equal(t, "slow_doubling", meta.Outcome)
	assert.Equal(t, 2, meta.Attempts)
	assert.InDelta(t, 0.85, meta.Metrics["min_inventory_Fueling System"], 1e-12)
	assert.NotContains(t, meta.Metrics, "bad")

	series, err := store.LoadInventories(id)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20}, series.Times)
	assert.Equal(t, []float64{1, 0.9, 0.85}, series.Column("Fueling System"))
	assert.Equal(t, []float64{0, 1e-6, 2e-6}, series.DPA)
	assert.Equal(t, []float64{0, 5e-8, 1e-7}, series.Traps)
	assert.Nil(t, series.Column("TRU"))
}

func TestStoreSaveWithoutBlanket(t *testing.T) {
	store := New(t.TempDir())
	res := sampleResult()
	res.Names = []string{"A", "B"}
	res.TBR = math.NaN()
	res.DoublingTime = 30

	id, err := store.Save("loop", res)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(store.baseDir, id, metadataFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tbr": null`)

	meta, err := store.Load(id)
	require.NoError(t, err)
	assert.Nil(t, meta.TBR)
	require.NotNil(t, meta.DoublingTime)
	assert.InDelta(t, 30, *meta.DoublingTime, 1e-12)
}

func TestStoreList(t *testing.T) {
	store := New(t.TempDir())
	first, err := store.Save("a", sampleResult())
	require.NoError(t, err)
	second, err := store.Save("b", sampleResult())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.baseDir, "stray.txt"), []byte("x"), 0644))

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestArchiveRecordsAttempts(t *testing.T) {
	ctx := context.Background()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	defer archive.Close()

	res := sampleResult()
	require.NoError(t, archive.Record(ctx, "run1", "baseline", res.Attempts))
	require.NoError(t, archive.Record(ctx, "run2", "loop", res.Attempts[:1]))

	got, err := archive.Attempts(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, sim.ReserveDeficit, got[0].Outcome)
	assert.True(t, math.IsNaN(got[0].DoublingTime))
	assert.InDelta(t, -0.25, got[0].MinMargin, 1e-12)
	assert.Equal(t, sim.Accepted, got[1].Outcome)
	assert.InDelta(t, 0.4, got[1].DoublingTime, 1e-12)
	assert.InDelta(t, 1.25, got[1].IStartup, 1e-12)

	runs, err := archive.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"run1": 2, "run2": 1}, runs)
}

func TestArchiveRejectsDuplicateAttempt(t *testing.T) {
	ctx := context.Background()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	defer archive.Close()

	attempts := sampleResult().Attempts
	require.NoError(t, archive.Record(ctx, "run1", "baseline", attempts))
	assert.Error(t, archive.Record(ctx, "run1", "baseline", attempts))

	got, err := archive.Attempts(ctx, "run1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOpenArchiveRequiresPath(t *testing.T) {
	_, err := OpenArchive("  ")
	assert.Error(t, err)
}
