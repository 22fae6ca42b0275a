// Package stats collects render statistics. Counters, percentages and
// histograms are registered once on a Sink; each worker records into its
// own Recorder and flushes it into the sink when a tile completes, so the
// hot path never takes a lock.
package stats

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// CounterID identifies a registered counter
type CounterID int

// PercentID identifies a registered ratio of hits to trials
type PercentID int

// HistogramID identifies a registered histogram
type HistogramID int

type histogram struct {
	lo, hi  float64
	buckets []int64
	under   int64
	over    int64
	count   int64
	sum     float64
}

func newHistogram(lo, hi float64, n int) histogram {
	return histogram{lo: lo, hi: hi, buckets: make([]int64, max(1, n))}
}

func (h *histogram) observe(v float64) {
	if math.IsNaN(v) {
		return
	}
	h.count++
	h.sum += v
	switch {
	case v < h.lo:
		h.under++
	case v > h.hi:
		h.over++
	default:
		n := len(h.buckets)
		i := int((v - h.lo) / (h.hi - h.lo) * float64(n))
		h.buckets[min(max(i, 0), n-1)]++
	}
}

func (h *histogram) merge(o *histogram) {
	for i := range o.buckets {
		h.buckets[i] += o.buckets[i]
	}
	h.under += o.under
	h.over += o.over
	h.count += o.count
	h.sum += o.sum
}

func (h *histogram) reset() {
	clear(h.buckets)
	h.under, h.over, h.count, h.sum = 0, 0, 0, 0
}

// Sink owns the registered statistics and their merged values
type Sink struct {
	mu sync.Mutex

	counterNames   []string
	counters       []int64
	percentNames   []string
	hits, trials   []int64
	histogramNames []string
	histograms     []histogram
}

// NewSink creates an empty sink
func NewSink() *Sink {
	return &Sink{}
}

// RegisterCounter adds a counter and returns its id
func (s *Sink) RegisterCounter(name string) CounterID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterNames = append(s.counterNames, name)
	s.counters = append(s.counters, 0)
	return CounterID(len(s.counters) - 1)
}

// RegisterPercent adds a hit ratio and returns its id
func (s *Sink) RegisterPercent(name string) PercentID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percentNames = append(s.percentNames, name)
	s.hits = append(s.hits, 0)
	s.trials = append(s.trials, 0)
	return PercentID(len(s.hits) - 1)
}

// RegisterHistogram adds a histogram with n equal buckets over [lo, hi].
// Values outside the range are counted separately.
func (s *Sink) RegisterHistogram(name string, lo, hi float64, n int) HistogramID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histogramNames = append(s.histogramNames, name)
	s.histograms = append(s.histograms, newHistogram(lo, hi, n))
	return HistogramID(len(s.histograms) - 1)
}

// NewRecorder creates a recorder for one worker
func (s *Sink) NewRecorder() *Recorder {
	r := &Recorder{sink: s}
	r.sync()
	return r
}

// Flush merges r into the sink and clears r
func (s *Sink) Flush(r *Recorder) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range r.counters {
		s.counters[i] += v
	}
	for i := range r.hits {
		s.hits[i] += r.hits[i]
		s.trials[i] += r.trials[i]
	}
	for i := range r.histograms {
		s.histograms[i].merge(&r.histograms[i])
	}
	r.reset()
}

// HistogramSnapshot is a copy of one histogram
type HistogramSnapshot struct {
	Lo, Hi      float64
	Buckets     []int64
	Under, Over int64
	Count       int64
	Mean        float64
}

// Snapshot is a copy of every statistic at one point in time
type Snapshot struct {
	Counters   map[string]int64
	Percents   map[string]float64 // Hit ratio in [0, 1]; 0 when nothing was recorded
	Trials     map[string]int64
	Histograms map[string]HistogramSnapshot
}

// Snapshot copies the flushed values
func (s *Sink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Counters:   make(map[string]int64, len(s.counters)),
		Percents:   make(map[string]float64, len(s.hits)),
		Trials:     make(map[string]int64, len(s.hits)),
		Histograms: make(map[string]HistogramSnapshot, len(s.histograms)),
	}
	for i, name := range s.counterNames {
		snap.Counters[name] = s.counters[i]
	}
	for i, name := range s.percentNames {
		snap.Trials[name] = s.trials[i]
		if s.trials[i] > 0 {
			snap.Percents[name] = float64(s.hits[i]) / float64(s.trials[i])
		} else {
			snap.Percents[name] = 0
		}
	}
	for i, name := range s.histogramNames {
		h := s.histograms[i]
		hs := HistogramSnapshot{
			Lo:      h.lo,
			Hi:      h.hi,
			Buckets: append([]int64(nil), h.buckets...),
			Under:   h.under,
			Over:    h.over,
			Count:   h.count,
		}
		if h.count > 0 {
			hs.Mean = h.sum / float64(h.count)
		}
		snap.Histograms[name] = hs
	}
	return snap
}

// Report logs every statistic in registration order
func (s *Sink) Report(logger core.Logger) {
	snap := s.Snapshot()
	s.mu.Lock()
	counterNames := append([]string(nil), s.counterNames...)
	percentNames := append([]string(nil), s.percentNames...)
	histogramNames := append([]string(nil), s.histogramNames...)
	s.mu.Unlock()

	logger.Printf("Statistics:\n")
	for _, name := range counterNames {
		logger.Printf("  %-40s %12d\n", name, snap.Counters[name])
	}
	for _, name := range percentNames {
		logger.Printf("  %-40s %11.2f%% (%d trials)\n", name, 100*snap.Percents[name], snap.Trials[name])
	}
	for _, name := range histogramNames {
		h := snap.Histograms[name]
		logger.Printf("  %-40s count %d mean %.4g\n", name, h.Count, h.Mean)
		if h.Count == 0 {
			continue
		}
		var b strings.Builder
		width := (h.Hi - h.Lo) / float64(len(h.Buckets))
		for i, c := range h.Buckets {
			fmt.Fprintf(&b, "    [%6.3g, %6.3g) %d\n", h.Lo+float64(i)*width, h.Lo+float64(i+1)*width, c)
		}
		if h.Under > 0 || h.Over > 0 {
			fmt.Fprintf(&b, "    below %d, above %d\n", h.Under, h.Over)
		}
		logger.Printf("%s", b.String())
	}
}

// Recorder accumulates statistics for a single worker without locking.
// A nil Recorder ignores everything recorded into it.
type Recorder struct {
	sink         *Sink
	counters     []int64
	hits, trials []int64
	histograms   []histogram
}

// sync sizes the local buffers to the sink's registrations
func (r *Recorder) sync() {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	for len(r.counters) < len(r.sink.counters) {
		r.counters = append(r.counters, 0)
	}
	for len(r.hits) < len(r.sink.hits) {
		r.hits = append(r.hits, 0)
		r.trials = append(r.trials, 0)
	}
	for i := len(r.histograms); i < len(r.sink.histograms); i++ {
		h := r.sink.histograms[i]
		r.histograms = append(r.histograms, newHistogram(h.lo, h.hi, len(h.buckets)))
	}
}

func (r *Recorder) reset() {
	clear(r.counters)
	clear(r.hits)
	clear(r.trials)
	for i := range r.histograms {
		r.histograms[i].reset()
	}
}

// Add adds n to a counter
func (r *Recorder) Add(id CounterID, n int64) {
	if r == nil {
		return
	}
	if int(id) >= len(r.counters) {
		r.sync()
	}
	r.counters[id] += n
}

// Inc adds one to a counter
func (r *Recorder) Inc(id CounterID) {
	r.Add(id, 1)
}

// Percent records one trial of a ratio
func (r *Recorder) Percent(id PercentID, hit bool) {
	if r == nil {
		return
	}
	if int(id) >= len(r.hits) {
		r.sync()
	}
	r.trials[id]++
	if hit {
		r.hits[id]++
	}
}

// Observe records a value in a histogram
func (r *Recorder) Observe(id HistogramID, v float64) {
	if r == nil {
		return
	}
	if int(id) >= len(r.histograms) {
		r.sync()
	}
	r.histograms[id].observe(v)
}
