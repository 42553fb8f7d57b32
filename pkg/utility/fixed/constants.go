package fixed

import "github.com/govalues/decimal"

var (
	Zero    = Point{decimal.MustNew(0, 0)}
	One     = Point{decimal.MustNew(1, 0)}
	NegOne  = Point{decimal.MustNew(-1, 0)}
	Two     = Point{decimal.MustNew(2, 0)}
	Five    = Point{decimal.MustNew(5, 0)}
	Ten     = Point{decimal.MustNew(10, 0)}
	Hundred = Point{decimal.MustNew(100, 0)}

	PointFive = Point{decimal.MustNew(5, 1)}

	// Sqrt252 annualizes daily return statistics.
	Sqrt252 = Point{decimal.MustParse("15.8745078663875")}
)
