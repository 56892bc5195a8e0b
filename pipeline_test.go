package coilplan

import (
	"sync/atomic"
	"testing"
)

func TestTaskCoversAllIndices(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8} {
		data := make([]int, 17)
		for i := range data {
			data[i] = i * 10
		}

		var hits [17]atomic.Int32
		task(workers, data, func(i int, v int) {
			if v != i*10 {
				t.Errorf("workers=%d: index %d received value %d", workers, i, v)
			}
			hits[i].Add(1)
		})

		for i := range hits {
			if n := hits[i].Load(); n != 1 {
				t.Errorf("workers=%d: index %d visited %d times", workers, i, n)
			}
		}
	}
}

func TestTaskEmptyData(t *testing.T) {
	task(4, nil, func(int, struct{}) {
		t.Error("callback invoked for empty data")
	})
}
