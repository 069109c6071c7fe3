package sigrelease

import (
	"math"
	"slices"
	"time"
)

// markerQuantile estimates one quantile of a stream with the P-square
// algorithm (Jain & Chlamtac, 1985): five markers, O(1) per observation, no
// stored samples.
//
// Not safe for concurrent use.
type markerQuantile struct {
	p      float64
	height [5]float64 // marker heights
	pos    [5]int     // actual marker positions
	want   [5]float64 // desired marker positions
	step   [5]float64 // desired position increments
	count  int
	warmup [5]float64 // first five observations
}

func newMarkerQuantile(p float64) *markerQuantile {
	p = math.Min(math.Max(p, 0), 1)
	return &markerQuantile{
		p:    p,
		step: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (m *markerQuantile) observe(x float64) {
	m.count++
	if m.count <= len(m.warmup) {
		m.warmup[m.count-1] = x
		if m.count == len(m.warmup) {
			m.start()
		}
		return
	}

	var cell int
	switch {
	case x < m.height[0]:
		m.height[0] = x
		cell = 0
	case x >= m.height[4]:
		m.height[4] = x
		cell = 3
	default:
		for cell = 0; cell < 3 && x >= m.height[cell+1]; cell++ {
		}
	}

	for i := cell + 1; i < 5; i++ {
		m.pos[i]++
	}
	for i := range m.want {
		m.want[i] += m.step[i]
	}

	for i := 1; i < 4; i++ {
		d := m.want[i] - float64(m.pos[i])
		if !(d >= 1 && m.pos[i+1]-m.pos[i] > 1) && !(d <= -1 && m.pos[i-1]-m.pos[i] < -1) {
			continue
		}
		dir := 1
		if d < 0 {
			dir = -1
		}
		if h := m.parabolic(i, dir); m.height[i-1] < h && h < m.height[i+1] {
			m.height[i] = h
		} else {
			m.height[i] = m.linear(i, dir)
		}
		m.pos[i] += dir
	}
}

func (m *markerQuantile) start() {
	slices.Sort(m.warmup[:])
	m.height = m.warmup
	for i := range m.pos {
		m.pos[i] = i
	}
	m.want = [5]float64{0, 2 * m.p, 4 * m.p, 2 + 2*m.p, 4}
}

func (m *markerQuantile) parabolic(i, dir int) float64 {
	d := float64(dir)
	n, prev, next := float64(m.pos[i]), float64(m.pos[i-1]), float64(m.pos[i+1])
	return m.height[i] + d/(next-prev)*
		((n-prev+d)*(m.height[i+1]-m.height[i])/(next-n)+
			(next-n-d)*(m.height[i]-m.height[i-1])/(n-prev))
}

func (m *markerQuantile) linear(i, dir int) float64 {
	j := i + dir
	return m.height[i] + float64(dir)*(m.height[j]-m.height[i])/float64(m.pos[j]-m.pos[i])
}

func (m *markerQuantile) value() float64 {
	switch {
	case m.count == 0:
		return 0
	case m.count < len(m.warmup):
		s := slices.Clone(m.warmup[:m.count])
		slices.Sort(s)
		return s[int(float64(m.count-1)*m.p)]
	}
	return m.height[2]
}

// latencyStats tracks P50/P90/P99, max, and mean of a duration stream.
type latencyStats struct {
	p50, p90, p99 *markerQuantile
	sum           float64
	max           float64
	count         int
}

func newLatencyStats() *latencyStats {
	return &latencyStats{
		p50: newMarkerQuantile(0.50),
		p90: newMarkerQuantile(0.90),
		p99: newMarkerQuantile(0.99),
		max: math.Inf(-1),
	}
}

func (s *latencyStats) observe(d time.Duration) {
	x := float64(d)
	s.count++
	s.sum += x
	s.max = math.Max(s.max, x)
	s.p50.observe(x)
	s.p90.observe(x)
	s.p99.observe(x)
}

func (s *latencyStats) fill(r *SoakReport) {
	if s.count == 0 {
		return
	}
	r.P50 = time.Duration(s.p50.value())
	r.P90 = time.Duration(s.p90.value())
	r.P99 = time.Duration(s.p99.value())
	r.Max = time.Duration(s.max)
	r.Mean = time.Duration(s.sum / float64(s.count))
}
