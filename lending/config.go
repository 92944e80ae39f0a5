package lending

import "github.com/holiman/uint256"

// Bit layout of the pool's packed ReserveConfigurationMap word. Ranges are
// inclusive and 0-indexed from the low bit.
const (
	ltvStartBit                  = 0
	ltvEndBit                    = 15
	liquidationThresholdStartBit = 16
	liquidationThresholdEndBit   = 31
	liquidationBonusStartBit     = 32
	liquidationBonusEndBit       = 47
	decimalsStartBit             = 48
	decimalsEndBit               = 55
	activeBit                    = 56
	frozenBit                    = 57
	borrowingEnabledBit          = 58
	pausedBit                    = 60
	borrowCapStartBit            = 80
	borrowCapEndBit              = 115
	supplyCapStartBit            = 116
	supplyCapEndBit              = 151
)

// ReserveConfig wraps the packed configuration word returned by
// Pool.getConfiguration. Some call paths only have this word available, so its
// flag accessors must agree with the richer data-provider snapshot.
type ReserveConfig struct {
	word *uint256.Int
}

// NewReserveConfig builds a decoder over a raw configuration word.
func NewReserveConfig(word *uint256.Int) ReserveConfig {
	if word == nil {
		word = new(uint256.Int)
	}
	return ReserveConfig{word: word.Clone()}
}

// IsZero reports whether the word is entirely unset, which the pool returns
// for assets that have never been listed.
func (c ReserveConfig) IsZero() bool {
	return c.word == nil || c.word.IsZero()
}

// Word returns a copy of the raw packed value.
func (c ReserveConfig) Word() *uint256.Int {
	if c.word == nil {
		return new(uint256.Int)
	}
	return c.word.Clone()
}

func (c ReserveConfig) extractBits(start, end uint) uint64 {
	if c.word == nil {
		return 0
	}
	width := end - start + 1
	shifted := new(uint256.Int).Rsh(c.word, start)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), width)
	mask.SubUint64(mask, 1)
	shifted.And(shifted, mask)
	return shifted.Uint64()
}

func (c ReserveConfig) bit(pos uint) bool {
	return c.extractBits(pos, pos) == 1
}

// IsActive reports the active flag at bit 56.
func (c ReserveConfig) IsActive() bool { return c.bit(activeBit) }

// IsFrozen reports the frozen flag at bit 57.
func (c ReserveConfig) IsFrozen() bool { return c.bit(frozenBit) }

// IsPaused reports the paused flag at bit 60.
func (c ReserveConfig) IsPaused() bool { return c.bit(pausedBit) }

// BorrowingEnabled reports the borrowing flag at bit 58.
func (c ReserveConfig) BorrowingEnabled() bool { return c.bit(borrowingEnabledBit) }

// LTV returns the base loan-to-value in basis points. Zero means the asset is
// not eligible as collateral.
func (c ReserveConfig) LTV() uint64 {
	return c.extractBits(ltvStartBit, ltvEndBit)
}

// LiquidationThreshold returns the liquidation threshold in basis points.
func (c ReserveConfig) LiquidationThreshold() uint64 {
	return c.extractBits(liquidationThresholdStartBit, liquidationThresholdEndBit)
}

// LiquidationBonus returns the liquidation bonus in basis points.
func (c ReserveConfig) LiquidationBonus() uint64 {
	return c.extractBits(liquidationBonusStartBit, liquidationBonusEndBit)
}

// Decimals returns the underlying token precision.
func (c ReserveConfig) Decimals() uint8 {
	return uint8(c.extractBits(decimalsStartBit, decimalsEndBit))
}

// BorrowCap returns the borrow cap in whole token units. Zero means no cap.
func (c ReserveConfig) BorrowCap() uint64 {
	return c.extractBits(borrowCapStartBit, borrowCapEndBit)
}

// SupplyCap returns the supply cap in whole token units. Zero means no cap.
func (c ReserveConfig) SupplyCap() uint64 {
	return c.extractBits(supplyCapStartBit, supplyCapEndBit)
}
