package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedSource always returns the same draw. Used to pin settlement outcomes.
type fixedSource struct {
	u float64
}

func (s fixedSource) Unit() (float64, error) { return s.u, nil }

// failingSource simulates a broken randomness generator.
type failingSource struct{}

func (failingSource) Unit() (float64, error) { return 0, errors.New("entropy exhausted") }

func TestSampleInterim(t *testing.T) {
	t.Run("MaxUpwardNoise", func(t *testing.T) {
		p := NewPriceProcess(fixedSource{u: 1}, 0.001, 0.002)

		price, err := p.SampleInterim(50.0)

		assert.NoError(t, err)
		assert.InDelta(t, 50.0*1.001, price, 1e-9)
	})

	t.Run("MaxDownwardNoise", func(t *testing.T) {
		p := NewPriceProcess(fixedSource{u: -1}, 0.001, 0.002)

		price, err := p.SampleInterim(50.0)

		assert.NoError(t, err)
		assert.InDelta(t, 50.0*0.999, price, 1e-9)
	})

	t.Run("ZeroNoiseReturnsReference", func(t *testing.T) {
		p := NewPriceProcess(fixedSource{u: 0}, 0.001, 0.002)

		price, err := p.SampleInterim(50.0)

		assert.NoError(t, err)
		assert.Equal(t, 50.0, price)
	})
}

func TestSampleSettlement(t *testing.T) {
	t.Run("UsesSettlementVolatility", func(t *testing.T) {
		p := NewPriceProcess(fixedSource{u: 1}, 0.001, 0.002)

		price, err := p.SampleSettlement(50.0)

		assert.NoError(t, err)
		assert.InDelta(t, 50.0*1.002, price, 1e-9)
	})

	t.Run("SourceFailurePropagates", func(t *testing.T) {
		p := NewPriceProcess(failingSource{}, 0.001, 0.002)

		price, err := p.SampleSettlement(50.0)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "noise source failed")
		assert.Equal(t, 0.0, price)
	})
}

func TestRandSource(t *testing.T) {
	src := NewRandSource(42)

	// Draws must stay inside [-1, 1) and the same seed must reproduce them.
	var first []float64
	for i := 0; i < 1000; i++ {
		u, err := src.Unit()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, u, -1.0)
		assert.Less(t, u, 1.0)
		first = append(first, u)
	}

	replay := NewRandSource(42)
	for i := 0; i < len(first); i++ {
		u, err := replay.Unit()
		assert.NoError(t, err)
		assert.Equal(t, first[i], u)
	}
}
