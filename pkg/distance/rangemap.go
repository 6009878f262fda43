package distance

import "math"

// Alpha controls how quickly unbounded distances approach the closed
// limit in InfiniteToClosed.
const Alpha = 0.1

// ClosedToInfinite maps a distance in [0, limit) onto [0, +Inf). It is the
// inverse of InfiniteToClosed.
func ClosedToInfinite(d, limit float64) float64 {
	return -math.Log(1-(d/limit)) / Alpha
}

// InfiniteToClosed maps a distance in [0, +Inf) onto [0, limit).
func InfiniteToClosed(d, limit float64) float64 {
	return limit - (limit * math.Exp(-Alpha*d))
}
