package channel_utils

import (
	"sync"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
)

// MergeChannels fans every input channel into one output channel, closing it
// once all inputs have drained. The output is buffered so a producer can hand
// off one value per input even when the consumer has stopped reading.
func MergeChannels[T any](workerPool outbound.TaskDispatcher, channels ...<-chan T) (<-chan T, error) {
	var wg sync.WaitGroup
	merged := make(chan T, len(channels))

	drain := func(c <-chan T) {
		for val := range c {
			merged <- val
		}
		wg.Done()
	}

	wg.Add(len(channels))
	for _, c := range channels {
		ch := c
		if err := workerPool.Submit(func() { drain(ch) }); err != nil {
			return nil, err
		}
	}

	if err := workerPool.Submit(func() {
		wg.Wait()
		close(merged)
	}); err != nil {
		return nil, err
	}

	return merged, nil
}
