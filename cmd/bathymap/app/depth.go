package app

import "math"

const (
	defaultMinDepth = 0.0   // meters
	defaultMaxDepth = 100.0 // meters

	depthBinWidth = 0.1 // meters
	minDepthRange = 1.0 // meters

	// For 20 samples:
	// - 5% percentile  = 1 sample
	// - 95% percentile = 19th sample
	minimumSampleCount = 20
)

// DepthBounds represents the depth range mapped onto the color scale
type DepthBounds struct {
	Min  float64 // 5th percentile depth in meters, positive down
	Max  float64 // 95th percentile depth in meters
	Mean float64 // Mean depth in meters
}

func defaultDepthBounds() DepthBounds {
	return DepthBounds{
		Min:  defaultMinDepth,
		Max:  defaultMaxDepth,
		Mean: (defaultMinDepth + defaultMaxDepth) / 2,
	}
}

// Override replaces the bounds set manually
func (b DepthBounds) Override(minDepth, maxDepth *float64) DepthBounds {
	if minDepth != nil {
		b.Min = *minDepth
	}
	if maxDepth != nil {
		b.Max = *maxDepth
	}
	return b
}

// DepthHistogram maintains a histogram of depth values in 10 cm bins
type DepthHistogram struct {
	bins       map[int]uint32 // Map of bin index to count
	totalCount uint64
	sum        float64
	minBin     int
	maxBin     int
}

func NewDepthHistogram() *DepthHistogram {
	return &DepthHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

func getBinIndex(depth float64) int {
	return int(math.Floor(depth / depthBinWidth))
}

// scaleDown halves all bin counts
func (h *DepthHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	for bin := range h.bins {
		h.bins[bin] /= 2
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
			continue
		}

		h.minBin = min(h.minBin, bin)
		h.maxBin = max(h.maxBin, bin)
	}
	h.totalCount /= 2
	h.sum /= 2
}

// Update adds a depth reading to the histogram
func (h *DepthHistogram) Update(depth *float64) {
	if depth == nil || math.IsNaN(*depth) {
		return
	}

	bin := getBinIndex(*depth)
	if h.bins[bin] == math.MaxUint32 || h.totalCount == math.MaxUint64 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++
	h.sum += *depth

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

func (h *DepthHistogram) Count() uint64 {
	return h.totalCount
}

// PercentileBounds returns the 5th and 95th percentile depths widened by a
// 10% margin. Fewer than minimumSampleCount readings give the default bounds.
func (h *DepthHistogram) PercentileBounds() DepthBounds {
	if h.totalCount < minimumSampleCount {
		return defaultDepthBounds()
	}

	target := max(h.totalCount*5/100, 1)

	var count uint64
	var low, high int
	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count >= target {
			low = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count >= target {
			high = bin + 1 // upper edge of the bin
			break
		}
	}

	minDepth := float64(low) * depthBinWidth
	maxDepth := float64(high) * depthBinWidth

	if maxDepth-minDepth < minDepthRange {
		center := (maxDepth + minDepth) / 2
		minDepth = center - minDepthRange/2
		maxDepth = center + minDepthRange/2
	}

	margin := (maxDepth - minDepth) / 10
	return DepthBounds{
		Min:  minDepth - margin,
		Max:  maxDepth + margin,
		Mean: h.sum / float64(h.totalCount),
	}
}

// SmoothBounds exponentially smooths the percentile bounds of a histogram
type SmoothBounds struct {
	hist    *DepthHistogram
	alpha   float64 // Smoothing factor (0-1)
	current DepthBounds
}

func NewSmoothBounds(alpha float64) *SmoothBounds {
	return &SmoothBounds{
		hist:    NewDepthHistogram(),
		alpha:   alpha,
		current: defaultDepthBounds(),
	}
}

// Update adds a depth reading and returns the smoothed bounds
func (s *SmoothBounds) Update(depth *float64) DepthBounds {
	if depth == nil {
		return s.current
	}

	s.hist.Update(depth)
	if s.hist.Count() < minimumSampleCount {
		return s.current
	}

	next := s.hist.PercentileBounds()
	if s.hist.Count() == minimumSampleCount {
		// first real estimate replaces the defaults
		s.current = next
		return s.current
	}

	s.current.Min = s.current.Min*(1-s.alpha) + next.Min*s.alpha
	s.current.Max = s.current.Max*(1-s.alpha) + next.Max*s.alpha
	s.current.Mean = next.Mean

	return s.current
}

func (s *SmoothBounds) Current() DepthBounds {
	return s.current
}
