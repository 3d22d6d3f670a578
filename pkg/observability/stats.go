package observability

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Stats counts hook events in memory. It implements [EnrichHooks],
// [CacheHooks] and [HTTPHooks] and is safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	entries  int
	failed   int
	missing  map[string]int
	hits     map[string]int
	misses   map[string]int
	writes   map[string]int
	requests int
	errors   int
	statuses map[int]int
	elapsed  time.Duration
}

// NewStats creates an empty collector.
func NewStats() *Stats {
	return &Stats{
		missing:  make(map[string]int),
		hits:     make(map[string]int),
		misses:   make(map[string]int),
		writes:   make(map[string]int),
		statuses: make(map[int]int),
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Entries      int            `json:"entries"`
	Failed       int            `json:"failed"`
	Missing      map[string]int `json:"missing_fields"`
	CacheHits    map[string]int `json:"cache_hits"`
	CacheMisses  map[string]int `json:"cache_misses"`
	CacheWrites  map[string]int `json:"cache_writes"`
	Requests     int            `json:"requests"`
	RequestError int            `json:"request_errors"`
	Statuses     map[int]int    `json:"statuses"`
	Elapsed      time.Duration  `json:"elapsed"`
}

// Caches returns the names of all caches seen, sorted.
func (s Snapshot) Caches() []string {
	seen := make(map[string]bool)
	for _, m := range []map[string]int{s.CacheHits, s.CacheMisses, s.CacheWrites} {
		for k := range m {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Entries:      s.entries,
		Failed:       s.failed,
		Missing:      copyCounts(s.missing),
		CacheHits:    copyCounts(s.hits),
		CacheMisses:  copyCounts(s.misses),
		CacheWrites:  copyCounts(s.writes),
		Requests:     s.requests,
		RequestError: s.errors,
		Statuses:     copyCounts(s.statuses),
		Elapsed:      s.elapsed,
	}
}

func copyCounts[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Stats) OnEntryStart(context.Context, string) {}

func (s *Stats) OnEntryComplete(_ context.Context, _ string, _ time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries++
	if err != nil {
		s.failed++
	}
}

func (s *Stats) OnFieldMissing(_ context.Context, _, field string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing[field]++
}

func (s *Stats) OnRunComplete(_ context.Context, _ int, d time.Duration, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = d
}

func (s *Stats) OnCacheHit(_ context.Context, cache string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[cache]++
}

func (s *Stats) OnCacheMiss(_ context.Context, cache string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[cache]++
}

func (s *Stats) OnCacheSet(_ context.Context, cache string, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[cache]++
}

func (s *Stats) OnRequest(context.Context, string, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
}

func (s *Stats) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status]++
}

func (s *Stats) OnError(context.Context, string, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

var (
	_ EnrichHooks = (*Stats)(nil)
	_ CacheHooks  = (*Stats)(nil)
	_ HTTPHooks   = (*Stats)(nil)
)
