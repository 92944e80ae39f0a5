package lending

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	ray         = mustBigInt("1000000000000000000000000000") // 1e27 precision
	halfRay     = new(big.Int).Rsh(ray, 1)

	// healthFactorThreshold is the 1e18 boundary below which the pool treats a
	// position as liquidatable.
	healthFactorThreshold = mustBigInt("1000000000000000000")

	// MaxUint256 doubles as the protocol's "entire balance/debt" amount
	// sentinel on withdraw and repay.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// rayMul multiplies two ray-scaled values with half-up rounding, matching the
// pool's WadRayMath library. Projecting a scaled balance through an index is
// rayMul(scaled, index).
func rayMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	product.Add(product, halfRay)
	product.Quo(product, ray)
	return product
}

// percentDiv divides a value by a basis-point percentage with half-up
// rounding: (value*10000 + percentage/2) / percentage. Converting a debt total
// into the collateral required at a given LTV is percentDiv(debt, ltv).
func percentDiv(value, percentageBps *big.Int) *big.Int {
	if value == nil || percentageBps == nil || percentageBps.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(value, basisPoints)
	numerator.Add(numerator, new(big.Int).Rsh(percentageBps, 1))
	numerator.Quo(numerator, percentageBps)
	return numerator
}

// pow10 returns 10^decimals, used to translate human-unit caps into base
// token units.
func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// IsMaxAmount reports whether amount is the full-balance sentinel.
func IsMaxAmount(amount *big.Int) bool {
	return amount != nil && amount.Cmp(MaxUint256) == 0
}
