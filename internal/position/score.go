package position

import "math/big"

var bigOne = big.NewInt(1)

// ConvictionScore is the integer square root of amount.
func ConvictionScore(amount *big.Int) *big.Int {
	return ISqrt(amount)
}

// ISqrt returns floor(sqrt(n)) computed exactly with Newton's method.
// Nil and non-positive inputs yield 0.
func ISqrt(n *big.Int) *big.Int {
	if n == nil || n.Sign() <= 0 {
		return new(big.Int)
	}

	// Start above the root: 2^ceil(bits/2) > sqrt(n).
	x := new(big.Int).Lsh(bigOne, uint(n.BitLen()+1)/2) //nolint:gosec
	y := new(big.Int)

	for {
		// y = (x + n/x) / 2
		y.Quo(n, x)
		y.Add(y, x)
		y.Rsh(y, 1)

		if y.Cmp(x) >= 0 {
			return x
		}
		x.Set(y)
	}
}
