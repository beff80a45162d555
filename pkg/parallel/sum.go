package parallel

import "github.com/sourcegraph/conc/pool"

// DefaultParts is the partition count used by Sum.
const DefaultParts = 4

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum adds values using DefaultParts goroutines.
func Sum[T Number](values []T) T {
	return SumN(values, DefaultParts)
}

// SumN splits values into parts chunks of len(values)/parts elements, the
// last chunk taking the remainder, sums each chunk concurrently and adds the
// partial sums. parts < 1 is treated as 1.
func SumN[T Number](values []T, parts int) T {
	parts = max(parts, 1)
	size := len(values) / parts

	p := pool.NewWithResults[T]().WithMaxGoroutines(parts)
	for i := range parts {
		start := i * size
		end := start + size
		if i == parts-1 {
			end = len(values)
		}

		chunk := values[start:end]
		p.Go(func() T {
			return sequential(chunk)
		})
	}

	return sequential(p.Wait())
}

func sequential[T Number](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}
