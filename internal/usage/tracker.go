package usage

import (
	"sync"
	"time"
)

// Record captures one provider attempt outcome.
type Record struct {
	Timestamp    time.Time
	CredentialID string
	Kind         string
	Path         string // "managed" or "direct"
	Success      bool
	StatusCode   int
	CacheHit     bool
}

// KindStats aggregates outcomes per capability.
type KindStats struct {
	Requests  int64 `json:"requests"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
	CacheHits int64 `json:"cache_hits"`
}

// CredentialStats aggregates outcomes per credential.
type CredentialStats struct {
	Attempts  int64     `json:"attempts"`
	Successes int64     `json:"successes"`
	Failures  int64     `json:"failures"`
	LastUsed  time.Time `json:"last_used"`
	LastError int       `json:"last_error_code,omitempty"`
}

// Snapshot is a point-in-time copy of the tracker's counters.
type Snapshot struct {
	Since       time.Time                   `json:"since"`
	Total       int64                       `json:"total"`
	Kinds       map[string]*KindStats       `json:"kinds"`
	Credentials map[string]*CredentialStats `json:"credentials"`
	Fallbacks   int64                       `json:"fallbacks"`
}

// Tracker accumulates usage counters. It is constructed once at bootstrap
// and passed by reference to the components that record into it; there is
// no package-level instance.
type Tracker struct {
	mu        sync.Mutex
	since     time.Time
	total     int64
	fallbacks int64
	kinds     map[string]*KindStats
	creds     map[string]*CredentialStats
}

func NewTracker() *Tracker {
	return &Tracker{
		since: time.Now(),
		kinds: make(map[string]*KindStats),
		creds: make(map[string]*CredentialStats),
	}
}

func (t *Tracker) Record(rec Record) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	ks := t.kinds[rec.Kind]
	if ks == nil {
		ks = &KindStats{}
		t.kinds[rec.Kind] = ks
	}
	ks.Requests++
	if rec.Success {
		ks.Successes++
	} else {
		ks.Failures++
	}
	if rec.CacheHit {
		ks.CacheHits++
	}

	if rec.CredentialID != "" {
		cs := t.creds[rec.CredentialID]
		if cs == nil {
			cs = &CredentialStats{}
			t.creds[rec.CredentialID] = cs
		}
		cs.Attempts++
		cs.LastUsed = rec.Timestamp
		if rec.Success {
			cs.Successes++
		} else {
			cs.Failures++
			cs.LastError = rec.StatusCode
		}
	}
}

// RecordFallback counts a managed-path reachability failure recovered by
// the direct path.
func (t *Tracker) RecordFallback() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.fallbacks++
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Since:       t.since,
		Total:       t.total,
		Fallbacks:   t.fallbacks,
		Kinds:       make(map[string]*KindStats, len(t.kinds)),
		Credentials: make(map[string]*CredentialStats, len(t.creds)),
	}
	for k, v := range t.kinds {
		cp := *v
		snap.Kinds[k] = &cp
	}
	for k, v := range t.creds {
		cp := *v
		snap.Credentials[k] = &cp
	}
	return snap
}

// Reset clears all counters. Used by the admin surface.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.since = time.Now()
	t.total = 0
	t.fallbacks = 0
	t.kinds = make(map[string]*KindStats)
	t.creds = make(map[string]*CredentialStats)
}
