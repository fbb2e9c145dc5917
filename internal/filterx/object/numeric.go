package object

import (
	"math"
	"strconv"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func ftoa(d float64) string {
	if math.IsNaN(d) {
		return "nan"
	}
	if math.IsInf(d, 1) {
		return "inf"
	}
	if math.IsInf(d, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

func isNaN(d float64) bool { return math.IsNaN(d) }
func isInf(d float64) bool { return math.IsInf(d, 0) }
