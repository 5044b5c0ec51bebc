package engine

import (
	"fmt"
	"math/rand"
	"sync"
)

// NoiseSource supplies the randomness behind simulated price moves.
// Unit returns a draw from [-1, 1). Implementations may fail; a failed draw
// aborts only the single sample that requested it.
type NoiseSource interface {
	Unit() (float64, error)
}

type randSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource returns a seedable NoiseSource backed by math/rand.
// It is safe for concurrent use.
func NewRandSource(seed int64) NoiseSource {
	return &randSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSource) Unit() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()*2 - 1, nil
}

// PriceProcess produces synthetic price samples around a reference price.
//
// The process is memoryless: every sample perturbs the trade's original start
// price, not the previous sample, so noise never compounds. Interim samples
// use the tick volatility; the one-time settlement sample uses the larger
// settlement volatility.
type PriceProcess struct {
	src                  NoiseSource
	tickVolatility       float64
	settlementVolatility float64
}

// NewPriceProcess creates a price process with the given noise source and
// volatility regimes.
func NewPriceProcess(src NoiseSource, tickVolatility, settlementVolatility float64) *PriceProcess {
	return &PriceProcess{
		src:                  src,
		tickVolatility:       tickVolatility,
		settlementVolatility: settlementVolatility,
	}
}

func (p *PriceProcess) sample(referencePrice, volatility float64) (float64, error) {
	u, err := p.src.Unit()
	if err != nil {
		return 0, fmt.Errorf("noise source failed: %w", err)
	}
	return referencePrice * (1 + u*volatility), nil
}

// SampleInterim returns a live display price for a still-active trade.
func (p *PriceProcess) SampleInterim(referencePrice float64) (float64, error) {
	return p.sample(referencePrice, p.tickVolatility)
}

// SampleSettlement returns the final price for an expiring trade.
// It is meant to be drawn exactly once per trade.
func (p *PriceProcess) SampleSettlement(referencePrice float64) (float64, error) {
	return p.sample(referencePrice, p.settlementVolatility)
}
