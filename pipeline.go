package impulse

import "sync"

// task splits data in contiguous chunks, one goroutine per chunk.
// fn receives the index of the worker running it, to write into per worker buffers.
func task[T any](workersCount int, data []T, fn func(worker int, item T)) {
	dataSize := len(data)
	if workersCount <= 1 || dataSize < 2 {
		for _, item := range data {
			fn(0, item)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start, end := workerID*chunkSize, min((workerID+1)*chunkSize, dataSize)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(worker, data[i])
			}
		}(workerID, start, end)
	}
	wg.Wait()
}
