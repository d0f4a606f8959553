package usage

import (
	"testing"
	"time"
)

func TestTrackerAggregates(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Record(Record{Timestamp: now, CredentialID: "k1", Kind: "text", Path: "direct", Success: true})
	tr.Record(Record{Timestamp: now, CredentialID: "k1", Kind: "text", Path: "direct", Success: false, StatusCode: 429})
	tr.Record(Record{Timestamp: now, CredentialID: "k2", Kind: "image", Path: "managed", Success: true, CacheHit: true})
	tr.RecordFallback()

	snap := tr.Snapshot()
	if snap.Total != 3 || snap.Fallbacks != 1 {
		t.Errorf("total=%d fallbacks=%d", snap.Total, snap.Fallbacks)
	}
	text := snap.Kinds["text"]
	if text == nil || text.Requests != 2 || text.Successes != 1 || text.Failures != 1 {
		t.Errorf("text stats = %+v", text)
	}
	if snap.Kinds["image"].CacheHits != 1 {
		t.Errorf("image cache hits = %d", snap.Kinds["image"].CacheHits)
	}
	k1 := snap.Credentials["k1"]
	if k1 == nil || k1.Attempts != 2 || k1.LastError != 429 {
		t.Errorf("k1 stats = %+v", k1)
	}
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.Record(Record{Kind: "text", Success: true})

	snap := tr.Snapshot()
	snap.Kinds["text"].Requests = 99

	if tr.Snapshot().Kinds["text"].Requests != 1 {
		t.Error("mutating a snapshot must not change the tracker")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Record(Record{Kind: "text", CredentialID: "k1"})
	tr.RecordFallback()

	before := tr.Snapshot().Since
	tr.Reset()
	snap := tr.Snapshot()
	if snap.Total != 0 || snap.Fallbacks != 0 || len(snap.Kinds) != 0 || len(snap.Credentials) != 0 {
		t.Errorf("snapshot after reset = %+v", snap)
	}
	if snap.Since.Before(before) {
		t.Error("reset must move the window start forward")
	}
}

func TestTrackerNilSafe(t *testing.T) {
	var tr *Tracker
	tr.Record(Record{Kind: "text"})
	tr.RecordFallback()
}
