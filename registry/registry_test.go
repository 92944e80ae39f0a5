package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestResolveKnownChains(t *testing.T) {
	for _, id := range []uint64{1, 10, 137, 8453, 42161, 43114} {
		reg, err := Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", id, err)
		}
		if reg.ChainID != id {
			t.Fatalf("Resolve(%d) returned chain id %d", id, reg.ChainID)
		}
		for name, addr := range map[string]common.Address{
			"pool":              reg.Pool,
			"dataProvider":      reg.DataProvider,
			"priceOracle":       reg.PriceOracle,
			"addressesProvider": reg.AddressesProvider,
		} {
			if addr == (common.Address{}) {
				t.Fatalf("chain %d has a zero %s address", id, name)
			}
		}
	}
}

func TestResolveMainnetPool(t *testing.T) {
	reg, err := Resolve(1)
	if err != nil {
		t.Fatal(err)
	}
	want := common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
	if reg.Pool != want {
		t.Fatalf("mainnet pool = %s, want %s", reg.Pool, want)
	}
}

func TestResolveUnsupportedChain(t *testing.T) {
	if _, err := Resolve(5); err != ErrUnsupportedChain {
		t.Fatalf("Resolve(5) = %v, want ErrUnsupportedChain", err)
	}
}

func TestSupportedMatchesResolve(t *testing.T) {
	ids := Supported()
	if len(ids) != len(deployments) {
		t.Fatalf("Supported() returned %d ids, want %d", len(ids), len(deployments))
	}
	for _, id := range ids {
		if _, err := Resolve(id); err != nil {
			t.Fatalf("Supported() lists chain %d but Resolve fails: %v", id, err)
		}
	}
}
