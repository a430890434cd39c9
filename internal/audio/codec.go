// Package audio implements the mulaw/PCM16 codec and linear sample-rate
// conversion used at the carrier/model boundary (spec §4.1), grounded on the
// energy and buffer-handling conventions of the teacher's pkg/io/stt codec
// helpers.
package audio

import (
	"encoding/binary"

	"github.com/northlane/voicebridge/internal/voiceerr"
)

// SupportedRates are the sample rates the runtime accepts at any codec
// boundary: 8kHz (carrier A), 16kHz (model ingress), 24kHz (model egress),
// 44.1kHz (carrier B) and 48kHz (misc. test fixtures).
var SupportedRates = map[int]bool{
	8000:  true,
	16000: true,
	24000: true,
	44100: true,
	48000: true,
}

// mulawDecodeTable is the standard ITU-T G.711 mu-law decompression table,
// computed at init rather than hardcoded, to keep the source short and
// auditable against the bit-exact algorithm.
var mulawDecodeTable [256]int16

func init() {
	for i := 0; i < 256; i++ {
		mulawDecodeTable[i] = decodeMulawSample(byte(i))
	}
}

func decodeMulawSample(b byte) int16 {
	const bias = 0x84
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F
	sample := (int32(mantissa) << 3) + bias
	sample <<= exponent
	sample -= bias
	if sign != 0 {
		sample = -sample
	}
	if sample > 32767 {
		sample = 32767
	}
	if sample < -32768 {
		sample = -32768
	}
	return int16(sample)
}

func encodeMulawSample(sample int16) byte {
	const bias = 0x84
	const clip = 32635

	sign := byte(0)
	s := int32(sample)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > clip {
		s = clip
	}
	s += bias

	exponent := byte(7)
	for mask := int32(0x4000); s&mask == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((s >> (exponent + 3)) & 0x0F)
	return ^(sign | (exponent << 4) | mantissa)
}

// DecodeMulaw converts an 8-bit mu-law byte stream to little-endian PCM16.
func DecodeMulaw(in []byte) []byte {
	out := make([]byte, len(in)*2)
	for i, b := range in {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(mulawDecodeTable[b]))
	}
	return out
}

// EncodeMulaw converts little-endian PCM16 to an 8-bit mu-law byte stream.
// Returns voiceerr.ErrOddLength if pcm has an odd number of bytes.
func EncodeMulaw(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, voiceerr.ErrOddLength
	}
	out := make([]byte, len(pcm)/2)
	for i := 0; i < len(out); i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = encodeMulawSample(sample)
	}
	return out, nil
}

// Resample converts PCM16 little-endian audio from srcRate to dstRate using
// linear interpolation (spec §4.1: "resampling ... MUST use a deterministic
// algorithm, linear interpolation is sufficient"). Returns
// voiceerr.ErrBadRate if either rate is unsupported and voiceerr.ErrOddLength
// if pcm has an odd length. A no-op when srcRate == dstRate.
func Resample(pcm []byte, srcRate, dstRate int) ([]byte, error) {
	if !SupportedRates[srcRate] || !SupportedRates[dstRate] {
		return nil, voiceerr.ErrBadRate
	}
	if len(pcm)%2 != 0 {
		return nil, voiceerr.ErrOddLength
	}
	if srcRate == dstRate {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out, nil
	}

	srcSamples := make([]int16, len(pcm)/2)
	for i := range srcSamples {
		srcSamples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	if len(srcSamples) == 0 {
		return []byte{}, nil
	}

	ratio := float64(srcRate) / float64(dstRate)
	dstLen := int(float64(len(srcSamples)) / ratio)
	if dstLen < 1 {
		dstLen = 1
	}

	out := make([]byte, dstLen*2)
	lastIdx := len(srcSamples) - 1
	for i := 0; i < dstLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		if idx > lastIdx {
			idx = lastIdx
		}
		frac := srcPos - float64(idx)

		var sample float64
		if idx >= lastIdx {
			sample = float64(srcSamples[lastIdx])
		} else {
			a := float64(srcSamples[idx])
			b := float64(srcSamples[idx+1])
			sample = a + (b-a)*frac
		}

		if sample > 32767 {
			sample = 32767
		}
		if sample < -32768 {
			sample = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sample)))
	}
	return out, nil
}
