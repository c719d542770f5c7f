package safe

import "fmt"

// Package safe provides overflow-checked int64 arithmetic for the money path.
// A silent wraparound in a balance or PnL figure is worse than a crash, so
// every helper panics on overflow (halt policy).

// SafeAdd returns a + b. Panics on overflow.
func SafeAdd(a, b int64) int64 {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		panic(fmt.Sprintf("INT64_OVERFLOW_ADD: %d + %d", a, b))
	}
	return c
}

// SafeSub returns a - b. Panics on overflow.
func SafeSub(a, b int64) int64 {
	c := a - b
	if (b < 0 && c < a) || (b > 0 && c > a) {
		panic(fmt.Sprintf("INT64_OVERFLOW_SUB: %d - %d", a, b))
	}
	return c
}

// SafeMul returns a * b. Panics on overflow.
func SafeMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	c := a * b
	if c/b != a {
		panic(fmt.Sprintf("INT64_OVERFLOW_MUL: %d * %d", a, b))
	}
	return c
}

// SafeDiv returns a / b. Panics on division by zero.
func SafeDiv(a, b int64) int64 {
	if b == 0 {
		panic(fmt.Sprintf("INT64_DIV_ZERO: %d / 0", a))
	}
	return a / b
}
