// ABOUTME: Tests for visualization tap
// ABOUTME: Tests ring buffer capture and snapshot ordering
package player

import "testing"

func TestTapSamplesChronological(t *testing.T) {
	tap := NewTap(8)

	tap.Push([]float64{1, 2, 3, 4})
	got := tap.Samples(4)
	for i, want := range []float64{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestTapWrapsAround(t *testing.T) {
	tap := NewTap(4)

	tap.Push([]float64{1, 2, 3})
	tap.Push([]float64{4, 5, 6})

	// Only the last 4 samples survive, in chronological order.
	got := tap.Samples(4)
	for i, want := range []float64{3, 4, 5, 6} {
		if got[i] != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestTapSilenceBeforePlayback(t *testing.T) {
	tap := NewTap(16)

	// No signal yet is a normal state: the snapshot is silence.
	for i, s := range tap.Samples(16) {
		if s != 0 {
			t.Errorf("sample %d: expected silence, got %v", i, s)
		}
	}
}

func TestTapSamplesClampedToCapacity(t *testing.T) {
	tap := NewTap(4)
	tap.Push([]float64{1, 2, 3, 4})

	if got := tap.Samples(100); len(got) != 4 {
		t.Errorf("expected snapshot clamped to capacity 4, got %d", len(got))
	}
	if got := tap.Samples(0); got != nil {
		t.Errorf("expected nil snapshot for n=0, got %v", got)
	}
}

func TestTapClear(t *testing.T) {
	tap := NewTap(4)
	tap.Push([]float64{1, 2, 3, 4})
	tap.Clear()

	for i, s := range tap.Samples(4) {
		if s != 0 {
			t.Errorf("sample %d: expected silence after clear, got %v", i, s)
		}
	}
}

func TestTapDefaultSize(t *testing.T) {
	tap := NewTap(0)
	if got := tap.Samples(DefaultTapSize); len(got) != DefaultTapSize {
		t.Errorf("expected default capacity %d, got %d", DefaultTapSize, len(got))
	}
}
