package scheduler

// PeriodBound returns the upper bound 6M on the Pisano period of m.
func PeriodBound(m uint64) uint64 {
	return 6 * m
}

// PisanoPeriod returns the length of the cycle of the Fibonacci sequence
// taken modulo m, i.e. the number of Next calls after which a generator
// with modulus m emits the same coordinates again. It returns 0 for m < 2.
//
// The search is linear in the period and therefore bounded by 6m steps.
func PisanoPeriod(m uint64) uint64 {
	if m < MinModulus {
		return 0
	}
	prev, cur := uint64(0), uint64(1)
	limit := PeriodBound(m)
	for i := uint64(1); i <= limit; i++ {
		prev, cur = cur, (prev+cur)%m
		if prev == 0 && cur == 1 {
			return i
		}
	}
	return 0 // unreachable for m >= 2
}
