package result

import (
	"sync"
	"testing"
)

func TestIDGeneratorConcurrent(t *testing.T) {

	gen := NewIDGenerator()

	var wg sync.WaitGroup
	seen := make(chan int64, 100)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				seen <- gen.GetNext()
			}
		}()
	}

	wg.Wait()
	close(seen)

	ids := make(map[int64]bool)

	for id := range seen {
		if ids[id] {
			t.Errorf("duplicate id %d", id)
		}
		ids[id] = true
	}

	if len(ids) != 100 || gen.Last() != 100 {
		t.Errorf("expected 100 unique ids ending at 100, got %d ending at %d", len(ids), gen.Last())
	}
}
