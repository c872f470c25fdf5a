package cache

import (
	"sort"
	"time"
)

// Preloader learning parameters.
const (
	// recentWindow bounds how far back co-accessed keys contribute to an
	// observed sequence.
	recentWindow = 5 * time.Minute

	// sequenceLength is the number of trailing keys recorded per sequence.
	sequenceLength = 3

	// maxSequences caps the stored sequence list; on overflow the list is
	// trimmed to trimSequences most recent entries.
	maxSequences  = 1000
	trimSequences = 500

	// correlationThreshold is the minimum minute-bucket overlap for a key
	// to be proposed as temporally correlated.
	correlationThreshold = 0.3
)

// Preloader learns temporal and sequential access correlations and proposes
// keys likely to be requested next.
//
// Accesses are bucketed into per-key, per-minute frequency histograms; tags
// are bucketed under synthetic "tag:"+tag keys. Sequential structure is
// captured as short trailing-key sequences over a recent-activity window.
//
// Not safe for concurrent use; the manager serializes access under its
// mutex.
type Preloader struct {
	// histograms maps key -> minute bucket (unix/60) -> access count.
	histograms map[string]map[int64]int

	// recent maps key -> last access time.
	recent map[string]time.Time

	sequences [][]string

	now func() time.Time
}

// NewPreloader creates an empty preloader.
func NewPreloader() *Preloader {
	return &Preloader{
		histograms: make(map[string]map[int64]int),
		recent:     make(map[string]time.Time),
		now:        time.Now,
	}
}

// RecordAccess folds one access event into the learned state.
func (p *Preloader) RecordAccess(key string, tags []string) {
	now := p.now()
	bucket := now.Unix() / 60

	p.bump(key, bucket)
	for _, tag := range tags {
		p.bump("tag:"+tag, bucket)
	}
	p.recent[key] = now

	p.observeSequence(now)
}

func (p *Preloader) bump(key string, bucket int64) {
	hist, ok := p.histograms[key]
	if !ok {
		hist = make(map[int64]int)
		p.histograms[key] = hist
	}
	hist[bucket]++
}

// observeSequence appends the trailing keys of the recent-activity window,
// in access order, as one observed sequence.
func (p *Preloader) observeSequence(now time.Time) {
	cutoff := now.Add(-recentWindow)

	type activeKey struct {
		key string
		at  time.Time
	}
	active := make([]activeKey, 0, len(p.recent))
	for key, at := range p.recent {
		if at.After(cutoff) {
			active = append(active, activeKey{key: key, at: at})
		} else {
			delete(p.recent, key)
		}
	}
	if len(active) < 2 {
		return
	}

	sort.Slice(active, func(i, j int) bool { return active[i].at.Before(active[j].at) })
	if len(active) > sequenceLength {
		active = active[len(active)-sequenceLength:]
	}

	seq := make([]string, len(active))
	for i, a := range active {
		seq[i] = a.key
	}
	p.sequences = append(p.sequences, seq)

	if len(p.sequences) > maxSequences {
		trimmed := make([][]string, trimSequences)
		copy(trimmed, p.sequences[len(p.sequences)-trimSequences:])
		p.sequences = trimmed
	}
}

// Predict proposes up to limit keys likely to be requested after currentKey:
// sequence-based proposals first, then temporally correlated keys, in
// discovery order with duplicates and currentKey itself removed.
func (p *Preloader) Predict(currentKey string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string

	propose := func(key string) {
		if key == currentKey || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, key)
	}

	// Sequence continuation: any sequence whose second-to-last element is
	// currentKey suggests its last element comes next.
	for _, seq := range p.sequences {
		if len(seq) < 2 {
			continue
		}
		if seq[len(seq)-2] == currentKey {
			propose(seq[len(seq)-1])
		}
	}

	// Temporal correlation: keys whose active minutes overlap currentKey's.
	current := p.histograms[currentKey]
	if len(current) > 0 {
		// Iterate in insertion-independent sorted order so proposals are
		// deterministic across runs.
		keys := make([]string, 0, len(p.histograms))
		for key := range p.histograms {
			if key != currentKey {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			if correlation(current, p.histograms[key]) > correlationThreshold {
				propose(key)
			}
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// correlation computes the Jaccard-style overlap between two minute-bucket
// histograms: |intersection of active minutes| / |union of active minutes|.
func correlation(a, b map[int64]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for bucket := range a {
		if _, ok := b[bucket]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Reset discards all learned state.
func (p *Preloader) Reset() {
	p.histograms = make(map[string]map[int64]int)
	p.recent = make(map[string]time.Time)
	p.sequences = nil
}
