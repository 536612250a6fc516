package cone

import (
	"runtime"
	"sync"
)

// launchThreshold is the cone count below which a kernel runs on the
// calling goroutine; the fan-out cost dominates for small products.
const launchThreshold = 64

// launch runs fn(i) for i in [0, n), chunked across worker goroutines.
// Work items must not overlap in the buffers they write; cones index
// disjoint ranges so every kernel satisfies this by construction.
func launch(n int, fn func(i int)) {
	if n < launchThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	workers := min(runtime.GOMAXPROCS(0), n)
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
