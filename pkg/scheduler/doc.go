// Package scheduler assigns unit-square coordinates to output tiles.
//
// A [Generator] walks the Fibonacci sequence modulo M and maps each
// consecutive pair onto a [UV] coordinate. The sequence is a pure function
// of (M, number of calls): two generators with the same modulus emit the
// same coordinates in the same order, and [Generator.Reset] returns a
// generator to its seed so a run can be reproduced exactly.
//
// # Algorithm
//
// The state is the pair (prev, cur), seeded to (0, 1). Each call to
// [Generator.Next] does:
//
//	fib := cur
//	prev, cur = cur, (prev+cur) mod M
//	u = (fib mod M) / M
//	v = (cur mod M) / M
//
// so u is the current term and v the following one. With M = 100 the first
// five coordinates are (0.01, 0.01), (0.01, 0.02), (0.02, 0.03),
// (0.03, 0.05) and (0.05, 0.08).
//
// # Periodicity
//
// Fibonacci numbers taken modulo M repeat with the Pisano period π(M),
// which never exceeds 6M (see [PeriodBound]). For the moduli used in
// production (10^4 and up) the period is far longer than any tile count,
// but callers must not assume coordinates are unique: [PisanoPeriod]
// reports the exact cycle length.
package scheduler
