// Package registry maps chain identifiers to the Aave V3 contract set the
// adapter needs. The table is static; an adapter instance resolves it once and
// stays bound to that chain for its lifetime.
package registry

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupportedChain is returned when no deployment is known for a chain id.
var ErrUnsupportedChain = errors.New("registry: unsupported chain id")

// Registry holds the protocol contract addresses for one chain.
type Registry struct {
	ChainID           uint64
	Pool              common.Address
	DataProvider      common.Address
	PriceOracle       common.Address
	AddressesProvider common.Address
}

var deployments = map[uint64]Registry{
	1: {
		ChainID:           1,
		Pool:              common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"),
		DataProvider:      common.HexToAddress("0x7B4EB56E7CD4b454BA8ff71E4518426369a138a3"),
		PriceOracle:       common.HexToAddress("0x54586bE62E3c3580375aE3723C145253060Ca0C2"),
		AddressesProvider: common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e"),
	},
	10: {
		ChainID:           10,
		Pool:              common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
		DataProvider:      common.HexToAddress("0x69FA688f1Dc47d4B5d8029D5a35FB7a548310654"),
		PriceOracle:       common.HexToAddress("0xD81eb3728a631871a7eBBaD631b5f424909f0c77"),
		AddressesProvider: common.HexToAddress("0xa97684ead0e402dC232d5A977953DF7ECBaB3CDb"),
	},
	137: {
		ChainID:           137,
		Pool:              common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
		DataProvider:      common.HexToAddress("0x69FA688f1Dc47d4B5d8029D5a35FB7a548310654"),
		PriceOracle:       common.HexToAddress("0xb023e699F5a33916Ea823A16485e259257cA8Bd1"),
		AddressesProvider: common.HexToAddress("0xa97684ead0e402dC232d5A977953DF7ECBaB3CDb"),
	},
	8453: {
		ChainID:           8453,
		Pool:              common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"),
		DataProvider:      common.HexToAddress("0x2d8A3C5677189723C4cB8873CfC9C8976FDF38Ac"),
		PriceOracle:       common.HexToAddress("0x2Cc0Fc26eD4563A5ce5e8bdcfe1A2878676Ae156"),
		AddressesProvider: common.HexToAddress("0xe20fCBdBfFC4Dd138cE8b2E6FBb6CB49777ad64D"),
	},
	42161: {
		ChainID:           42161,
		Pool:              common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
		DataProvider:      common.HexToAddress("0x69FA688f1Dc47d4B5d8029D5a35FB7a548310654"),
		PriceOracle:       common.HexToAddress("0xb56c2F0B653B2e0b10C9b928C8580Ac5Df02C7C7"),
		AddressesProvider: common.HexToAddress("0xa97684ead0e402dC232d5A977953DF7ECBaB3CDb"),
	},
	43114: {
		ChainID:           43114,
		Pool:              common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD"),
		DataProvider:      common.HexToAddress("0x69FA688f1Dc47d4B5d8029D5a35FB7a548310654"),
		PriceOracle:       common.HexToAddress("0xEBd36016B3eD09D4693Ed4251c67Bd858c3c7C9C"),
		AddressesProvider: common.HexToAddress("0xa97684ead0e402dC232d5A977953DF7ECBaB3CDb"),
	},
}

// Resolve returns the contract set deployed on the given chain.
func Resolve(chainID uint64) (Registry, error) {
	reg, ok := deployments[chainID]
	if !ok {
		return Registry{}, ErrUnsupportedChain
	}
	return reg, nil
}

// Supported lists the chain ids present in the table.
func Supported() []uint64 {
	ids := make([]uint64, 0, len(deployments))
	for id := range deployments {
		ids = append(ids, id)
	}
	return ids
}
