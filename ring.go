package vlcbridge

import (
	"math"
	"sync/atomic"
)

// AudioFrame is one stereo sample pair.
type AudioFrame struct {
	Left  float32
	Right float32
}

func packFrame(f AudioFrame) uint64 {
	return uint64(math.Float32bits(f.Left)) | uint64(math.Float32bits(f.Right))<<32
}

func unpackFrame(v uint64) AudioFrame {
	return AudioFrame{
		Left:  math.Float32frombits(uint32(v)),
		Right: math.Float32frombits(uint32(v >> 32)),
	}
}

// audioRing is a bounded single-producer single-consumer queue.
//
// head and tail only grow. The producer owns tail and may move
// head forward to drop or clear, so the consumer claims a slot
// by CAS on head after reading it; a failed CAS means the slot
// was reclaimed and the value is discarded.
type audioRing struct {
	slots []atomic.Uint64
	head  atomic.Uint64
	tail  atomic.Uint64
}

func newAudioRing(capacity int) *audioRing {
	if capacity < 1 {
		capacity = 1
	}

	return &audioRing{slots: make([]atomic.Uint64, capacity)}
}

func (r *audioRing) cap() uint64 {
	return uint64(len(r.slots))
}

// Len returns the number of queued frames.
func (r *audioRing) Len() int {
	t := r.tail.Load()
	h := r.head.Load()
	if h >= t {
		return 0
	}

	return int(t - h)
}

// push enqueues f without blocking. It reports whether f was
// stored and whether a frame was lost to make room or because
// the ring was full.
func (r *audioRing) push(f AudioFrame, policy DropPolicy) (stored, dropped bool) {
	t := r.tail.Load()
	h := r.head.Load()

	if t-h >= r.cap() {
		if policy != DropOldest {
			return false, true
		}

		// A failed CAS means the consumer freed the slot.
		dropped = r.head.CompareAndSwap(h, h+1)
	}

	r.slots[t%r.cap()].Store(packFrame(f))
	r.tail.Store(t + 1)

	return true, dropped
}

// pop moves up to len(dst) frames into dst and returns the count.
func (r *audioRing) pop(dst []AudioFrame) int {
	n := 0
	for n < len(dst) {
		h := r.head.Load()
		if h >= r.tail.Load() {
			break
		}

		v := r.slots[h%r.cap()].Load()
		if r.head.CompareAndSwap(h, h+1) {
			dst[n] = unpackFrame(v)
			n++
		}
	}

	return n
}

// clear discards everything queued. Producer side only.
func (r *audioRing) clear() {
	for {
		h := r.head.Load()
		t := r.tail.Load()
		if h >= t || r.head.CompareAndSwap(h, t) {
			return
		}
	}
}
