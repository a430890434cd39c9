package audio

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/northlane/voicebridge/internal/voiceerr"
)

func TestMulawRoundTripPreservesSign(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(1000)))
	negative := int16(-1000)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(negative))
	binary.LittleEndian.PutUint16(pcm[4:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(pcm[6:], uint16(int16(30000)))

	encoded, err := EncodeMulaw(pcm)
	if err != nil {
		t.Fatalf("EncodeMulaw: %v", err)
	}
	if len(encoded) != 4 {
		t.Fatalf("expected 4 mulaw bytes, got %d", len(encoded))
	}

	decoded := DecodeMulaw(encoded)
	if len(decoded) != len(pcm) {
		t.Fatalf("expected %d decoded bytes, got %d", len(pcm), len(decoded))
	}

	s1 := int16(binary.LittleEndian.Uint16(decoded[0:]))
	s2 := int16(binary.LittleEndian.Uint16(decoded[2:]))
	if s1 <= 0 {
		t.Errorf("expected positive sample to stay positive after round trip, got %d", s1)
	}
	if s2 >= 0 {
		t.Errorf("expected negative sample to stay negative after round trip, got %d", s2)
	}
}

func TestEncodeMulawRejectsOddLength(t *testing.T) {
	_, err := EncodeMulaw([]byte{0x01, 0x02, 0x03})
	if !errors.Is(err, voiceerr.ErrOddLength) {
		t.Fatalf("expected ErrOddLength, got %v", err)
	}
}

func TestResampleNoopWhenRatesMatch(t *testing.T) {
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], 111)
	binary.LittleEndian.PutUint16(pcm[2:], 222)

	out, err := Resample(pcm, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if string(out) != string(pcm) {
		t.Fatalf("expected no-op resample to return identical bytes")
	}
}

func TestResampleRejectsUnsupportedRate(t *testing.T) {
	pcm := make([]byte, 4)
	_, err := Resample(pcm, 11025, 16000)
	if !errors.Is(err, voiceerr.ErrBadRate) {
		t.Fatalf("expected ErrBadRate, got %v", err)
	}
}

func TestResampleDownsampleShrinksLength(t *testing.T) {
	pcm := make([]byte, 1000) // 500 samples at 16kHz
	for i := 0; i < 500; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i)))
	}
	out, err := Resample(pcm, 16000, 8000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	gotSamples := len(out) / 2
	if gotSamples < 200 || gotSamples > 300 {
		t.Fatalf("expected roughly half the samples downsampling 16k->8k, got %d", gotSamples)
	}
}

func TestResampleRejectsOddLength(t *testing.T) {
	_, err := Resample([]byte{0x01}, 16000, 8000)
	if !errors.Is(err, voiceerr.ErrOddLength) {
		t.Fatalf("expected ErrOddLength, got %v", err)
	}
}
