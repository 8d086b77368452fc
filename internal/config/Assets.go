/*
This file contains the mapping of asset symbols to their on-chain decimal precision.

The settlement service books balances in smallest units, so every USD-denominated
amount the agent computes has to be converted through these decimals before a
withdraw or deposit is posted.

If an asset doesnt have an entry here the conversion helpers return an error
rather than guessing. Keep this up to date when new routes are added.
*/

package config

var (
	AssetDecimals = map[string]int{
		"APT":  8,
		"USDC": 6,
		"USDT": 6,
	}
)

// DecimalsFor returns the decimal precision for an asset symbol.
// The second return is false when the asset is unknown.
func DecimalsFor(symbol string) (int, bool) {
	decimals, ok := AssetDecimals[symbol]
	return decimals, ok
}
