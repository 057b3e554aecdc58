package mirror

import "testing"

// assertDistinct checks invariant I1: write, ready (if valid), and display
// (if valid) are pairwise distinct.
func assertDistinct(t *testing.T, tb *TripleBuffer) {
	t.Helper()
	w, r, d := tb.indices()
	if r != slotNone && r == w {
		t.Fatalf("I1 violated: ready == write (%d)", w)
	}
	if d != slotNone && d == w {
		t.Fatalf("I1 violated: display == write (%d)", w)
	}
	if r != slotNone && d != slotNone && r == d {
		t.Fatalf("I1 violated: ready == display (%d)", r)
	}
}

func TestTripleBufferInitialState(t *testing.T) {
	tb := NewTripleBuffer()
	w, r, d := tb.indices()
	if w != 0 {
		t.Fatalf("expected initial write=0, got %d", w)
	}
	if r != slotNone || d != slotNone {
		t.Fatalf("expected ready=display=none initially, got ready=%d display=%d", r, d)
	}
}

func TestTripleBufferPublishAcquireRoundTrip(t *testing.T) {
	tb := NewTripleBuffer()

	tb.Publish(1)
	assertDistinct(t, tb)

	slot, id := tb.Acquire()
	if slot < 0 {
		t.Fatalf("expected a valid slot after first publish")
	}
	if id != 1 {
		t.Fatalf("expected frame id 1, got %d", id)
	}
	assertDistinct(t, tb)
}

func TestTripleBufferAcquireWithNoReadyKeepsDisplay(t *testing.T) {
	tb := NewTripleBuffer()
	tb.Publish(1)
	slot1, id1 := tb.Acquire()

	// No publish happened since: ready is none, so the consumer should
	// keep its existing display slot (idle-desktop tie-break).
	slot2, id2 := tb.Acquire()
	if slot2 != slot1 || id2 != id1 {
		t.Fatalf("expected stale acquire to repeat (%d,%d), got (%d,%d)", slot1, id1, slot2, id2)
	}
}

func TestTripleBufferFrameIDsMonotonicAcrossPublishes(t *testing.T) {
	tb := NewTripleBuffer()
	var lastSeen uint64
	for i := uint64(1); i <= 50; i++ {
		tb.Publish(i)
		assertDistinct(t, tb)
		if i%3 == 0 {
			// Consumer doesn't acquire every publish — exercises the
			// "recycle previous ready" branch of Publish.
			_, id := tb.Acquire()
			if id < lastSeen {
				t.Fatalf("I2 violated: observed id %d after previously observing %d", id, lastSeen)
			}
			lastSeen = id
		}
	}
}

func TestTripleBufferNeverReturnsUninitializedSlot(t *testing.T) {
	tb := NewTripleBuffer()
	if slot, id := tb.Acquire(); slot != -1 || id != 0 {
		t.Fatalf("expected (-1,0) before any publish, got (%d,%d)", slot, id)
	}
	tb.Publish(7)
	slot, id := tb.Acquire()
	if slot < 0 || slot > 2 {
		t.Fatalf("expected a valid slot index, got %d", slot)
	}
	if id != 7 {
		t.Fatalf("I3 violated: expected frame id 7, got %d", id)
	}
}

func TestTripleBufferManyPublishesWithoutAcquireStaysConsistent(t *testing.T) {
	tb := NewTripleBuffer()
	for i := uint64(1); i <= 1000; i++ {
		tb.Publish(i)
		assertDistinct(t, tb)
	}
	// The last publish must still be observable.
	slot, id := tb.Acquire()
	if id != 1000 {
		t.Fatalf("expected the freshest id 1000, got %d (slot %d)", id, slot)
	}
}
