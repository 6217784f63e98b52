package pool

import (
	"fmt"

	"github.com/joshuapare/contigkit/internal/buf"
)

// RoundUp returns the size class for a request: size rounded up to the next
// multiple of granularity. Requests of 4000 and 4096 bytes share the 4096
// class and can reuse each other's blocks.
func RoundUp(size, granularity int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	class, ok := buf.AlignUp(size, granularity)
	if !ok {
		return 0, fmt.Errorf("%w: %d overflows granularity %d", ErrInvalidSize, size, granularity)
	}
	return class, nil
}

func checkGranularity(g int) error {
	if !buf.IsPowerOfTwo(g) {
		return fmt.Errorf("%w: %d", ErrBadGranularity, g)
	}
	return nil
}
