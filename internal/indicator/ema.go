package indicator

import "math"

// exponentialMovingAverage seeds with the SMA of the first period finite values
// and then applies ema = alpha*x + (1-alpha)*ema with alpha = 2/(period+1).
// A non-finite value yields NaN and restarts the seed from the next finite run.
func exponentialMovingAverage(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)

	run := 0
	sum := 0.0
	ema := math.NaN()

	for i, v := range values {
		if !isFinite(v) {
			run = 0
			sum = 0
			ema = math.NaN()
			result[i] = math.NaN()

			continue
		}

		if run < period {
			run++
			sum += v

			if run == period {
				ema = sum / float64(period)
			}

			result[i] = ema

			continue
		}

		ema = alpha*v + (1-alpha)*ema
		result[i] = ema
	}

	return result
}
