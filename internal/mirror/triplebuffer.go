package mirror

import "sync/atomic"

// slotNone marks write/ready/display as holding no valid slot.
const slotNone int32 = -1

// TripleBuffer is the lock-free three-slot exchange between one producer
// (the capture engine) and one consumer (the render engine). Slot contents
// themselves (GPU textures) are owned by the caller; TripleBuffer only
// arbitrates which slot index is safe to write, publish, or read, and
// tracks each slot's monotonic frame ID.
//
// Memory-order contract: publish is a release operation —
// every write to the slot's contents the producer performed before calling
// Publish must be visible to a consumer whose Acquire observes that slot.
// acquire is the matching acquire operation. Go's sync/atomic operations on
// a single word provide sequential consistency, which is strictly stronger
// than the release/acquire pairing this contract requires, so the invariant
// holds without extra fencing.
type TripleBuffer struct {
	write   atomic.Int32
	ready   atomic.Int32
	display atomic.Int32

	frameIDs [3]atomic.Uint64
}

// NewTripleBuffer returns a buffer with write=0 and ready=display=none,
// matching the state before any frame has been published.
func NewTripleBuffer() *TripleBuffer {
	tb := &TripleBuffer{}
	tb.write.Store(0)
	tb.ready.Store(slotNone)
	tb.display.Store(slotNone)
	return tb
}

// WriteIndex returns the slot the producer should fill next. Side-effect
// free; safe to call repeatedly before the copy completes.
func (tb *TripleBuffer) WriteIndex() int {
	return int(tb.write.Load())
}

// Publish marks the current write slot ready with the given frame ID and
// reassigns write to a slot that is neither the new ready slot nor the
// slot currently owned by the consumer (display). Non-blocking: the
// producer never waits on the consumer.
//
// Recycling rule: if the previous ready slot was never
// picked up by the consumer (i.e. it is not the display slot), that slot
// is recycled as the new write target — it holds the oldest data tied to
// no live reader. Otherwise a free slot (the one that is neither the new
// ready nor display) is selected by scanning {0,1,2}: such a slot always
// exists since the new ready slot and display, if valid, are distinct
// thanks to invariant I1, leaving exactly one free slot (two while display
// is still none).
func (tb *TripleBuffer) Publish(id uint64) {
	w := tb.write.Load()
	tb.frameIDs[w].Store(id)
	prevReady := tb.ready.Swap(w)

	display := tb.display.Load()
	if prevReady != slotNone && prevReady != display {
		tb.write.Store(prevReady)
		return
	}
	tb.write.Store(freeSlot(w, display))
}

// freeSlot returns the slot in {0,1,2} that is neither exclude1 nor
// exclude2. Terminates in at most three iterations even if display is
// concurrently updated by a racing Acquire, because the loop only needs
// any value distinct from the two exclusions taken at call time — it does
// not need to observe the very latest display value to make progress.
func freeSlot(exclude1, exclude2 int32) int32 {
	for s := int32(0); s < 3; s++ {
		if s != exclude1 && s != exclude2 {
			return s
		}
	}
	// Unreachable: at most two of {0,1,2} are excluded, so at least one
	// remains and the loop above always returns before falling through.
	return 0
}

// Acquire atomically takes ownership of the most recently published slot.
// If a slot was ready, display is advanced to it and (slot, frameID) for
// that slot is returned. If no slot was ready, the consumer keeps its
// existing display slot and
// that slot's current (slot, frameID) is returned; if display itself is
// none, (-1, 0) is returned.
func (tb *TripleBuffer) Acquire() (slot int, frameID uint64) {
	r := tb.ready.Swap(slotNone)
	if r != slotNone {
		tb.display.Store(r)
		return int(r), tb.frameIDs[r].Load()
	}
	d := tb.display.Load()
	if d == slotNone {
		return -1, 0
	}
	return int(d), tb.frameIDs[d].Load()
}

// PeekReadyID returns the frame ID of the current ready slot, or 0 if none
// is ready. Does not consume the ready slot.
func (tb *TripleBuffer) PeekReadyID() uint64 {
	r := tb.ready.Load()
	if r == slotNone {
		return 0
	}
	return tb.frameIDs[r].Load()
}

// indices returns the current (write, ready, display) triple. Exposed only
// for invariant testing; not part of the steady-state hot path.
func (tb *TripleBuffer) indices() (write, ready, display int32) {
	return tb.write.Load(), tb.ready.Load(), tb.display.Load()
}
