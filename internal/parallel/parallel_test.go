package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForCoversEveryIndexOnce(t *testing.T) {
	const n = 1000
	counts := make([]int32, n)

	For(n, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	}, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16})

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestForSequentialFallback(t *testing.T) {
	order := make([]int, 0, 8)
	For(8, func(i int) {
		order = append(order, i)
	}, Sequential())

	for i, got := range order {
		if got != i {
			t.Fatalf("sequential order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestForSmallNStaysSequential(t *testing.T) {
	// Below MinChunkSize the loop must run inline even when enabled;
	// appending without synchronization would race otherwise.
	var seen []int
	For(5, func(i int) {
		seen = append(seen, i)
	}, Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64})

	if len(seen) != 5 {
		t.Fatalf("visited %d indices, want 5", len(seen))
	}
}
