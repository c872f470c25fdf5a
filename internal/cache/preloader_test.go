package cache

import (
	"fmt"
	"testing"
	"time"
)

// testClock steps a fake clock forward on demand.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time { return c.current }

func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

// TestPredictSequencePattern verifies an alternating access pattern teaches
// the preloader which key follows which
func TestPredictSequencePattern(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	for _, key := range []string{"A", "B", "A", "B", "A", "C"} {
		p.RecordAccess(key, nil)
		clock.advance(time.Second)
	}

	predicted := p.Predict("A", 5)
	if len(predicted) == 0 {
		t.Fatal("expected predictions after training")
	}
	if predicted[0] != "B" {
		t.Errorf("expected B as the first prediction for A, got %v", predicted)
	}
	for _, key := range predicted {
		if key == "A" {
			t.Error("prediction list must not contain the current key")
		}
	}
}

// TestPredictTemporalCorrelation verifies keys sharing active minutes are
// proposed while keys active in disjoint minutes are not
func TestPredictTemporalCorrelation(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	// buddy shares every active minute with base; loner is hours away.
	for i := 0; i < 3; i++ {
		p.RecordAccess("base", nil)
		p.RecordAccess("buddy", nil)
		clock.advance(time.Minute)
	}
	clock.advance(6 * time.Hour)
	p.RecordAccess("loner", nil)

	predicted := p.Predict("base", 10)

	foundBuddy := false
	for _, key := range predicted {
		if key == "buddy" {
			foundBuddy = true
		}
		if key == "loner" {
			t.Error("uncorrelated key proposed")
		}
	}
	if !foundBuddy {
		t.Errorf("expected correlated key buddy in predictions, got %v", predicted)
	}
}

func TestPredictLimit(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	for i := 0; i < 8; i++ {
		p.RecordAccess(fmt.Sprintf("key-%d", i), nil)
		clock.advance(time.Second)
	}

	if got := p.Predict("key-0", 3); len(got) > 3 {
		t.Errorf("expected at most 3 predictions, got %d", len(got))
	}
	if got := p.Predict("key-0", 0); got != nil {
		t.Errorf("expected nil for zero limit, got %v", got)
	}
}

// TestRecordAccessTags verifies tags are tracked under synthetic keys
func TestRecordAccessTags(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	p.RecordAccess("report", []string{"daily", "finance"})

	if _, ok := p.histograms["tag:daily"]; !ok {
		t.Error("expected histogram for tag:daily")
	}
	if _, ok := p.histograms["tag:finance"]; !ok {
		t.Error("expected histogram for tag:finance")
	}
}

// TestSequenceListTrimmed verifies the stored sequence list is trimmed once
// it overflows its cap
func TestSequenceListTrimmed(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	p.sequences = make([][]string, maxSequences)
	for i := range p.sequences {
		p.sequences[i] = []string{"x", "y"}
	}

	// Two live keys so the next access observes one more sequence.
	p.RecordAccess("first", nil)
	clock.advance(time.Second)
	p.RecordAccess("second", nil)

	if len(p.sequences) != trimSequences {
		t.Errorf("expected sequence list trimmed to %d, got %d", trimSequences, len(p.sequences))
	}
}

// TestRecentWindowExpiry verifies keys idle beyond the activity window stop
// contributing to observed sequences
func TestRecentWindowExpiry(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	p.RecordAccess("stale", nil)
	clock.advance(recentWindow + time.Minute)
	p.RecordAccess("fresh", nil)

	if _, ok := p.recent["stale"]; ok {
		t.Error("expected stale key dropped from the activity window")
	}
	for _, seq := range p.sequences {
		for _, key := range seq {
			if key == "stale" {
				t.Error("stale key leaked into an observed sequence")
			}
		}
	}
}

func TestPreloaderReset(t *testing.T) {
	p := NewPreloader()
	clock := newTestClock()
	p.now = clock.now

	p.RecordAccess("a", []string{"t"})
	clock.advance(time.Second)
	p.RecordAccess("b", nil)

	p.Reset()

	if len(p.histograms) != 0 || len(p.recent) != 0 || len(p.sequences) != 0 {
		t.Error("reset left learned state behind")
	}
	if got := p.Predict("a", 5); len(got) != 0 {
		t.Errorf("expected no predictions after reset, got %v", got)
	}
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name string
		a, b map[int64]int
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"identical", map[int64]int{1: 2, 2: 1}, map[int64]int{1: 5, 2: 3}, 1.0},
		{"disjoint", map[int64]int{1: 1}, map[int64]int{2: 1}, 0},
		{"half overlap", map[int64]int{1: 1, 2: 1}, map[int64]int{2: 1, 3: 1}, 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := correlation(tt.a, tt.b); got != tt.want {
				t.Errorf("correlation = %f, want %f", got, tt.want)
			}
		})
	}
}
