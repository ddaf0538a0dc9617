package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/tezfolio/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmulation(t *testing.T) {
	day := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []domain.EmulationSample{
		{Day: day, Evaluation: 1.0},
		{Day: day.AddDate(0, 0, 1), Evaluation: 1.1},
		{Day: day.AddDate(0, 0, 2), Evaluation: 0.99},
		{Day: day.AddDate(0, 0, 3), Evaluation: 1.2},
	}

	s := domain.SummarizeEmulation(samples)

	assert.Equal(t, 4, s.Samples)
	assert.InDelta(t, 1.0, s.Start, 1e-9)
	assert.InDelta(t, 1.2, s.End, 1e-9)
	assert.InDelta(t, 0.2, s.TotalReturn, 1e-9)
	assert.InDelta(t, 0.1, s.MaxDrawdown, 1e-9) // 1.1 → 0.99
	assert.Greater(t, s.Volatility, 0.0)
	assert.InDelta(t, 100, samples[0].Percent(), 1e-9)
}

func TestSummarizeEmulation_Empty(t *testing.T) {
	assert.Equal(t, domain.EmulationSummary{}, domain.SummarizeEmulation(nil))
}

func TestSummarizeEmulation_SingleSample(t *testing.T) {
	s := domain.SummarizeEmulation([]domain.EmulationSample{{Evaluation: 1}})
	assert.Equal(t, 1, s.Samples)
	assert.Zero(t, s.Volatility)
	assert.Zero(t, s.TotalReturn)
}

func TestPositionPools(t *testing.T) {
	catalog := []domain.Pool{
		makePool("KT1a", "AAA", domain.StandardFA12),
		makePool("KT1b", "BBB", domain.StandardFA2),
		makePool("KT1c", "CCC", domain.StandardFA2),
	}
	position := domain.Position{
		{Symbol: "CCC", Asset: "a1", Weight: "0.5", Token: "KT1c"},
		{Symbol: "AAA", Asset: "a2", Weight: "0.5", Token: "KT1a"},
		{Symbol: "ZZZ", Asset: "a3", Weight: "0", Token: "KT1gone"},
	}

	pools := domain.PositionPools(catalog, position)

	assert.Len(t, pools, 2)
	assert.Equal(t, "KT1a", pools[0].PoolAddress)
	assert.Equal(t, "KT1c", pools[1].PoolAddress)
	assert.InDelta(t, 0.5, position[0].WeightValue(), 1e-9)
	assert.False(t, position.Empty())
	assert.True(t, domain.Position(nil).Empty())
}

func TestDuplicateSymbols(t *testing.T) {
	dups := domain.DuplicateSymbols([]domain.Pool{
		makePool("KT1a", "ABC", domain.StandardFA12),
		makePool("KT1b", "ABC", domain.StandardFA2),
		makePool("KT1c", "ABC", domain.StandardFA2),
		makePool("KT1d", "XYZ", domain.StandardFA2),
	})
	assert.Equal(t, []string{"ABC"}, dups)
}

func TestOpError_Kinds(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", domain.NewOpError(domain.KindContract, "close", base))

	assert.True(t, domain.IsKind(err, domain.KindContract))
	assert.False(t, domain.IsKind(err, domain.KindTransport))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, domain.ErrorKind(0), domain.KindOf(base))
	assert.Nil(t, domain.NewOpError(domain.KindContract, "close", nil))
	assert.Contains(t, err.Error(), "contract error")
}

func TestStage_Predicates(t *testing.T) {
	assert.False(t, domain.StageDisconnected.Connected())
	assert.True(t, domain.StageHasPosition.Connected())
	assert.True(t, domain.StageEmulating.InFlight())
	assert.False(t, domain.StageHasPosition.Resettable())
	assert.True(t, domain.StageVariantsReady.Resettable())
	assert.Equal(t, "emulation_ready", domain.StageEmulationReady.String())
}
