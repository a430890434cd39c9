// Package audiorouter implements the bounded egress buffer and multiplexer
// that sits between the call session loop and a carrier adapter's outbound
// audio writer (spec §4.6), adapted from the teacher's
// pkg/io/stt/audioRing ring-buffer-backed AudioInput queue, generalized from
// STT-only capture audio to bidirectional domain.AudioFrame traffic and from
// "error on blocked flush" to "drop oldest frame on overflow" backpressure.
package audiorouter

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/northlane/voicebridge/internal/domain"
)

func marshalFrame(f domain.AudioFrame) []byte {
	buf := make([]byte, 8+4+8+4+4+len(f.PCM16))
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.CaptureTs.UnixNano()))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(f.SampleRate))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], uint64(int64(f.RMS*1e9)))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], f.Seq)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(f.PCM16)))
	off += 4
	copy(buf[off:], f.PCM16)
	return buf
}

func unmarshalFrame(data []byte) (domain.AudioFrame, bool) {
	if len(data) < 28 {
		return domain.AudioFrame{}, false
	}
	off := 0
	ts := int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	rate := int32(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	rmsFixed := int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	seq := binary.LittleEndian.Uint32(data[off:])
	off += 4
	dataLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if len(data[off:]) < int(dataLen) {
		return domain.AudioFrame{}, false
	}
	pcm := make([]byte, dataLen)
	copy(pcm, data[off:off+int(dataLen)])
	return domain.AudioFrame{
		PCM16:      pcm,
		SampleRate: int(rate),
		RMS:        float64(rmsFixed) / 1e9,
		Seq:        seq,
		CaptureTs:  time.Unix(0, ts),
	}, true
}

// Ring is a fixed-capacity byte-backed queue of domain.AudioFrame. It never
// blocks: Push drops the oldest queued frame to make room rather than
// failing or blocking the caller (spec §4.6: "on overflow, the router drops
// the oldest buffered frame, never the newest").
type Ring struct {
	mu       sync.Mutex
	rb       *ringbuffer.RingBuffer
	dropped  uint64
}

// NewRing allocates a ring buffer with the given byte capacity.
func NewRing(byteCapacity int) *Ring {
	return &Ring{rb: ringbuffer.New(byteCapacity).SetBlocking(false)}
}

// Push enqueues f, dropping the oldest frame(s) if necessary to fit.
func (r *Ring) Push(f domain.AudioFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := marshalFrame(f)
	need := len(data) + 4
	if need > r.rb.Capacity() {
		// frame alone cannot fit even in an empty buffer; drop it.
		r.dropped++
		return
	}
	for r.rb.Free() < need {
		if !r.popOldestLocked() {
			r.rb.Reset()
			break
		}
		r.dropped++
	}

	sizeBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBytes, uint32(len(data)))
	r.rb.Write(sizeBytes)
	r.rb.Write(data)
}

// Pop dequeues the oldest frame, if any.
func (r *Ring) Pop() (domain.AudioFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.popLocked()
}

func (r *Ring) popLocked() (domain.AudioFrame, bool) {
	if r.rb.IsEmpty() {
		return domain.AudioFrame{}, false
	}
	sizeBytes := make([]byte, 4)
	n, err := r.rb.Read(sizeBytes)
	if err != nil || n != 4 {
		return domain.AudioFrame{}, false
	}
	size := binary.LittleEndian.Uint32(sizeBytes)
	data := make([]byte, size)
	n, err = r.rb.Read(data)
	if err != nil || uint32(n) != size {
		return domain.AudioFrame{}, false
	}
	f, ok := unmarshalFrame(data)
	return f, ok
}

func (r *Ring) popOldestLocked() bool {
	_, ok := r.popLocked()
	return ok
}

// Len reports the number of queued frames is not tracked exactly (byte ring),
// so Len reports queued bytes instead; callers use it only for metrics.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rb.Length()
}

// Dropped returns the cumulative count of frames evicted to make room.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
