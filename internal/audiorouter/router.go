package audiorouter

import (
	"time"

	"github.com/northlane/voicebridge/internal/audio"
	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// EgressRate is the sample rate the session loop hands frames to the router
// at; adapters convert from here to their own carrier-native rate (spec §4.3,
// §4.6).
const EgressRate = 24000

// Writer is the minimal contract a provider adapter exposes for outbound
// audio delivery.
type Writer interface {
	WriteAudio(frame domain.AudioFrame) error
}

// Counters are the per-session outbound metrics the router owns
// exclusively (spec §4.6: "increment {chunksSent, chunksFailed, bytes,
// elapsedMs} counters").
type Counters struct {
	ChunksSent   int64
	ChunksFailed int64
	Bytes        int64
	StartedAt    time.Time
}

// Router is the per-session outbound coordinator: it owns a bounded ring of
// pending frames, applies the final sample-rate conversion, and hands frames
// to the provider adapter one at a time (spec §4.6), adapted from the
// teacher's Pipeline.Broadcast delta-consuming loop.
type Router struct {
	ring     *Ring
	writer   Writer
	carrierRate int
	log      *Logger.Logger

	counters Counters
}

// NewRouter builds a router that converts frames to carrierRate before
// writing them through w.
func NewRouter(w Writer, carrierRate int, ringByteCapacity int, log *Logger.Logger) *Router {
	return &Router{
		ring:        NewRing(ringByteCapacity),
		writer:      w,
		carrierRate: carrierRate,
		log:         log,
		counters:    Counters{StartedAt: time.Now()},
	}
}

// Enqueue pushes a 24kHz frame onto the router's ring; never blocks (spec §8
// property 8: "enqueue never blocks longer than one frame period").
func (r *Router) Enqueue(frame domain.AudioFrame) {
	r.ring.Push(frame)
}

// Drain pops and writes every currently queued frame through the adapter,
// converting sample rate as it goes. Call this from the session loop's
// outbound-writer task.
func (r *Router) Drain() {
	for {
		frame, ok := r.ring.Pop()
		if !ok {
			return
		}
		r.deliver(frame)
	}
}

func (r *Router) deliver(frame domain.AudioFrame) {
	converted, err := audio.Resample(frame.PCM16, frame.SampleRate, r.carrierRate)
	if err != nil {
		r.counters.ChunksFailed++
		if r.log != nil {
			r.log.Warnf("audio router: resample failed: %v", err)
		}
		return
	}
	frame.PCM16 = converted
	frame.SampleRate = r.carrierRate

	if err := r.writer.WriteAudio(frame); err != nil {
		r.counters.ChunksFailed++
		if r.log != nil {
			r.log.Warnf("audio router: write failed: %v", err)
		}
		return
	}
	r.counters.ChunksSent++
	r.counters.Bytes += int64(len(converted))
}

// Counters returns a snapshot of this router's delivery counters plus the
// number of frames dropped for overflow.
func (r *Router) Counters() (Counters, uint64) {
	return r.counters, r.ring.Dropped()
}

// Summary logs the routing summary the spec requires on session end (§4.6:
// "on session end log a routing summary").
func (r *Router) Summary(callID string) {
	if r.log == nil {
		return
	}
	c, dropped := r.Counters()
	r.log.Infof(
		"call %s audio summary: sent=%d failed=%d bytes=%d dropped=%d elapsedMs=%d",
		callID, c.ChunksSent, c.ChunksFailed, c.Bytes, dropped,
		time.Since(c.StartedAt).Milliseconds(),
	)
}
