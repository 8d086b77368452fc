/*

This file contains the route type for triangular arbitrage paths. A route
names three assets but is priced as a single two-leg quote: the oracle
collapses the path into a from->to profitability check, and the mid asset is
informational.

*/

package types

// Route is one entry of the static route catalog.
type Route struct {
	Name      string `json:"name"`       // catalog key, e.g. "USDC_USDT"
	FromAsset string `json:"from_asset"` // asset the trade is funded from
	MidAsset  string `json:"mid_asset"`  // intermediate hop, descriptive only
	ToAsset   string `json:"to_asset"`   // asset the trade settles into

	// OracleFrom / OracleTo are the lowercase token identifiers the
	// profitability oracle expects for the priced leg.
	OracleFrom string `json:"oracle_from"`
	OracleTo   string `json:"oracle_to"`
}
