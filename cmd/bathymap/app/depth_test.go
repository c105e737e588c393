package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 {
	return &v
}

func TestDepthHistogram_TooFewSamples(t *testing.T) {
	h := NewDepthHistogram()
	for i := range minimumSampleCount - 1 {
		h.Update(ptr(float64(i)))
	}
	h.Update(nil)

	assert.Equal(t, uint64(minimumSampleCount-1), h.Count())
	assert.Equal(t, defaultDepthBounds(), h.PercentileBounds())
}

func TestDepthHistogram_PercentileBounds(t *testing.T) {
	h := NewDepthHistogram()
	// one sounding in the middle of each 10 cm bin from 10.0 m to 20.0 m
	for i := range 100 {
		h.Update(ptr(10.05 + float64(i)*0.1))
	}

	b := h.PercentileBounds()
	assert.InDelta(t, 9.48, b.Min, 1e-9)
	assert.InDelta(t, 20.52, b.Max, 1e-9)
	assert.InDelta(t, 15.0, b.Mean, 1e-9)
}

func TestDepthHistogram_MinimumRange(t *testing.T) {
	h := NewDepthHistogram()
	for range 30 {
		h.Update(ptr(5.05))
	}

	b := h.PercentileBounds()
	assert.InDelta(t, 4.45, b.Min, 1e-9)
	assert.InDelta(t, 5.65, b.Max, 1e-9)
	assert.InDelta(t, 5.05, b.Mean, 1e-9)
}

func TestDepthBounds_Override(t *testing.T) {
	b := DepthBounds{Min: 10, Max: 20, Mean: 15}

	assert.Equal(t, b, b.Override(nil, nil))
	assert.Equal(t, DepthBounds{Min: 12, Max: 20, Mean: 15}, b.Override(ptr(12), nil))
	assert.Equal(t, DepthBounds{Min: 12, Max: 18, Mean: 15}, b.Override(ptr(12), ptr(18)))
}

func TestSmoothBounds(t *testing.T) {
	s := NewSmoothBounds(0.3)

	for range minimumSampleCount - 1 {
		assert.Equal(t, defaultDepthBounds(), s.Update(ptr(5.05)))
	}

	first := s.Update(ptr(5.05))
	assert.InDelta(t, 4.45, first.Min, 1e-9)
	assert.InDelta(t, 5.65, first.Max, 1e-9)

	// deeper soundings pull the bounds down gradually
	var b DepthBounds
	for range 500 {
		b = s.Update(ptr(40.05))
	}
	assert.Greater(t, b.Max, first.Max)
	assert.InDelta(t, s.hist.PercentileBounds().Max, b.Max, 1e-6)
	assert.Equal(t, b, s.Current())
}
