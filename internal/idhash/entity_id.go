package idhash

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CollateralVaultRoundAnalyticName namespaces CollateralVaultRoundAnalytic ids so they
// cannot collide with the (round, address) ids used by other entities.
const CollateralVaultRoundAnalyticName = "collateralVaultRoundAnalytic"

// AddressID returns the canonical lower-case hex form of an address.
// Used as the id of address-keyed entities.
func AddressID(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// RoundID computes the id of a per-round entity.
// Formula: round-address
func RoundID(round uint64, address common.Address) string {
	return fmt.Sprintf("%d-%s", round, AddressID(address))
}

// RoundNamedID computes a namespaced per-round id.
// Formula: name-round-address
func RoundNamedID(name string, round uint64, address common.Address) string {
	return fmt.Sprintf("%s-%d-%s", name, round, AddressID(address))
}

// PoolPriceID computes the id of a pool price snapshot.
// Formula: address-timestamp
func PoolPriceID(address common.Address, timestamp uint64) string {
	return fmt.Sprintf("%s-%d", AddressID(address), timestamp)
}
