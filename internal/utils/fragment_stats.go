package utils

import (
	"math"
	"sort"
	"sync"
	"time"
)

// FragmentStats records inter-arrival times of stream fragments
type FragmentStats struct {
	mu sync.Mutex

	start     time.Time
	intervals []float32 // milliseconds
	lastTime  time.Time
	closed    bool
}

// FragmentStatInfo summarizes one stream
type FragmentStatInfo struct {
	Count     int     // fragments received
	FirstMs   float32 // time to first fragment
	Mean      float32 // mean interval (ms)
	Max       float32
	P50       float32
	P95       float32
	StdDev    float64
	IsError   bool
	ElapsedMs int64
}

// NewFragmentStats starts timing a stream
func NewFragmentStats() *FragmentStats {
	return &FragmentStats{start: time.Now()}
}

// OnFragment records a fragment arrival
func (fs *FragmentStats) OnFragment() {
	fs.OnFragmentAt(time.Now())
}

// OnFragmentAt records a fragment arrival at t
func (fs *FragmentStats) OnFragmentAt(t time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.closed {
		return
	}
	prev := fs.lastTime
	if prev.IsZero() {
		prev = fs.start
	}
	fs.intervals = append(fs.intervals, float32(t.Sub(prev).Microseconds())/1000)
	fs.lastTime = t
}

// End finishes a stream that completed normally
func (fs *FragmentStats) End() *FragmentStatInfo {
	return fs.finalize(false)
}

// Stop finishes a stream that failed
func (fs *FragmentStats) Stop() *FragmentStatInfo {
	return fs.finalize(true)
}

// finalize is idempotent; later calls return nil
func (fs *FragmentStats) finalize(isError bool) *FragmentStatInfo {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.closed {
		return nil
	}
	fs.closed = true

	info := &FragmentStatInfo{
		IsError:   isError,
		ElapsedMs: time.Since(fs.start).Milliseconds(),
	}
	n := len(fs.intervals)
	if n == 0 {
		return info
	}

	info.Count = n
	info.FirstMs = fs.intervals[0]

	sorted := make([]float32, n)
	copy(sorted, fs.intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum float64
	for _, v := range fs.intervals {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range fs.intervals {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(n)

	info.Mean = float32(mean)
	info.Max = sorted[n-1]
	info.P50 = sorted[n*50/100]
	info.P95 = sorted[n*95/100]
	info.StdDev = math.Sqrt(variance)

	fs.intervals = nil
	return info
}
