package scanner

import (
	"sync"

	"github.com/anvik-systems/payqr/internal/region"
)

// decodeParallel runs fn over the regions on a bounded worker pool. The
// result slice is indexed by detection order, so output stays deterministic
// regardless of which worker finishes first; entries are nil where fn
// produced nothing.
func decodeParallel(regions []region.Region, workers int, fn func(region.Region) *QRCode) []*QRCode {
	results := make([]*QRCode, len(regions))
	if len(regions) == 0 {
		return results
	}
	if workers > len(regions) {
		workers = len(regions)
	}
	if workers <= 1 {
		for i, r := range regions {
			results[i] = fn(r)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for rangeIdx := 0; rangeIdx < workers; rangeIdx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fn(regions[i])
			}
		}()
	}
	for i := range regions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
