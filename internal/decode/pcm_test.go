// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests carry-over alignment and chunking invariance
package decode

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/SpeakWire/speakwire-go/internal/audio"
)

func pcmFormat() audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: 24000, Channels: 1, BitDepth: 16}
}

func TestNewPCM(t *testing.T) {
	decoder, err := NewPCM(pcmFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewPCMRejectsBitDepth(t *testing.T) {
	format := pcmFormat()
	format.BitDepth = 24
	if _, err := NewPCM(format); err == nil {
		t.Fatal("expected error for unsupported bit depth")
	}
}

func TestPCMDecodeAligned(t *testing.T) {
	decoder, err := NewPCM(pcmFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x00, 0x01 -> 0x0100 = 256; 0x02, 0x03 -> 0x0302 = 770
	input := []byte{0x00, 0x01, 0x02, 0x03}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}

	expected0 := 256.0 / 32768.0
	if output[0] != expected0 {
		t.Errorf("expected first sample %v, got %v", expected0, output[0])
	}
	expected1 := 770.0 / 32768.0
	if output[1] != expected1 {
		t.Errorf("expected second sample %v, got %v", expected1, output[1])
	}
}

func TestPCMDecodeFullScale(t *testing.T) {
	format := pcmFormat()
	format.FullScale = 65536.0
	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, err := decoder.Decode([]byte{0x00, 0x40}) // 0x4000 = 16384
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if output[0] != 0.25 {
		t.Errorf("expected 0.25 with configured full scale, got %v", output[0])
	}
}

func TestPCMCarryAcrossChunks(t *testing.T) {
	// Chunks b"\x00\x80", b"\x01", b"\x00\x40": the single 0x01 byte is
	// carried after chunk 2 and combined with chunk 3. The result must
	// match decoding the concatenation minus its trailing odd byte.
	decoder, err := NewPCM(pcmFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	var got []float64
	for _, chunk := range [][]byte{{0x00, 0x80}, {0x01}, {0x00, 0x40}} {
		samples, err := decoder.Decode(chunk)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		got = append(got, samples...)
	}

	whole, err := NewPCM(pcmFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	want, err := whole.Decode([]byte{0x00, 0x80, 0x01, 0x00}) // concat minus trailing 0x40
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	// -32768 little-endian is 0x00 0x80.
	if got[0] != -1.0 {
		t.Errorf("expected first sample -1.0, got %v", got[0])
	}
}

func TestPCMChunkingInvariance(t *testing.T) {
	// For any chunking of an even-length stream, decoding chunk-by-chunk
	// with carry propagation yields the same samples as decoding the
	// concatenation at once.
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 4096)
	rng.Read(data)

	whole, _ := NewPCM(pcmFormat())
	want, err := whole.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	for trial := 0; trial < 20; trial++ {
		decoder, _ := NewPCM(pcmFormat())
		var got []float64
		rest := data
		for len(rest) > 0 {
			n := 1 + rng.Intn(97)
			if n > len(rest) {
				n = len(rest)
			}
			samples, err := decoder.Decode(rest[:n])
			if err != nil {
				t.Fatalf("trial %d: decode failed: %v", trial, err)
			}
			got = append(got, samples...)
			rest = rest[n:]
		}

		if len(got) != len(want) {
			t.Fatalf("trial %d: expected %d samples, got %d", trial, len(want), len(got))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("trial %d: sample %d differs: expected %v, got %v", trial, i, want[i], got[i])
			}
		}
	}
}

func TestPCMEmptyChunk(t *testing.T) {
	decoder, _ := NewPCM(pcmFormat())

	samples, err := decoder.Decode(nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected no samples from empty chunk, got %d", len(samples))
	}

	// Empty chunk between carry and completion must preserve the carry.
	if _, err := decoder.Decode([]byte{0x34}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, err := decoder.Decode(nil); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	samples, err = decoder.Decode([]byte{0x12})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	want := float64(int16(binary.LittleEndian.Uint16([]byte{0x34, 0x12}))) / 32768.0
	if samples[0] != want {
		t.Errorf("expected %v, got %v", want, samples[0])
	}
}

func TestPCMCloseDiscardsCarry(t *testing.T) {
	decoder, _ := NewPCM(pcmFormat())
	if _, err := decoder.Decode([]byte{0x01}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	samples, err := decoder.Decode([]byte{0x00, 0x40})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(samples) != 1 || samples[0] != 16384.0/32768.0 {
		t.Errorf("carry survived Close: got %v", samples)
	}
}

func TestNewSelectsCodec(t *testing.T) {
	if _, err := New(pcmFormat()); err != nil {
		t.Errorf("expected pcm decoder, got error: %v", err)
	}

	if _, err := New(audio.Format{Codec: "flac"}); err == nil {
		t.Error("expected error for unsupported codec")
	}

	// Empty codec defaults to pcm.
	if _, err := New(audio.Format{}); err != nil {
		t.Errorf("expected default pcm decoder, got error: %v", err)
	}
}
