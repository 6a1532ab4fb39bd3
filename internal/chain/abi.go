package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Read-only fragments of the vault contract ABIs. Only view functions used by
// the indexer are declared.
const (
	collateralVaultABIJSON = `[
		{"type":"function","name":"totalBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"pricePerShare","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"collateralToken","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
	]`

	neuronPoolABIJSON = `[
		{"type":"function","name":"pricePerShare","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]`

	onTokenABIJSON = `[
		{"type":"function","name":"expiryTimestamp","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]`

	oracleABIJSON = `[
		{"type":"function","name":"getPrice","stateMutability":"view","inputs":[{"name":"_asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`
)

// Contract method names.
const (
	MethodTotalBalance    = "totalBalance"
	MethodPricePerShare   = "pricePerShare"
	MethodCollateralToken = "collateralToken"
	MethodExpiryTimestamp = "expiryTimestamp"
	MethodGetPrice        = "getPrice"
)

// ABIs holds the parsed contract ABIs.
type ABIs struct {
	CollateralVault abi.ABI
	NeuronPool      abi.ABI
	ONToken         abi.ABI
	Oracle          abi.ABI
}

// ParseABIs parses the embedded ABI fragments.
func ParseABIs() (*ABIs, error) {
	var out ABIs
	for _, item := range []struct {
		name string
		json string
		dst  *abi.ABI
	}{
		{"collateral vault", collateralVaultABIJSON, &out.CollateralVault},
		{"neuron pool", neuronPoolABIJSON, &out.NeuronPool},
		{"option token", onTokenABIJSON, &out.ONToken},
		{"oracle", oracleABIJSON, &out.Oracle},
	} {
		parsed, err := abi.JSON(strings.NewReader(item.json))
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", item.name, err)
		}
		*item.dst = parsed
	}
	return &out, nil
}
