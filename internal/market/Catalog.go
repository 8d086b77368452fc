/*

This file contains the static route catalog for the arbitrage agent.

Every route is a triangular path: the start asset swaps into APT, then APT
swaps into the end asset. The oracle only quotes the outer pair, so each route
also carries the lowercase pair names the oracle expects.

*/

package market

import (
	"errors"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// RouteAuto is the sentinel route selection meaning "let the oracle pick".
const RouteAuto = "AUTO"

// ErrRouteNotFound is returned when a route key has no catalog entry.
var ErrRouteNotFound = errors.New("route not found in catalog")

// routeOrder fixes the round-robin rotation used when opportunity discovery
// returns nothing useful.
var routeOrder = []string{
	"USDC_USDT",
	"USDT_USDC",
	"APT_USDC",
	"APT_USDT",
}

var catalog = map[string]types.Route{
	"USDC_USDT": {
		Name:       "USDC_USDT",
		FromAsset:  "USDC",
		MidAsset:   "APT",
		ToAsset:    "USDT",
		OracleFrom: "usdc",
		OracleTo:   "usdt",
	},
	"USDT_USDC": {
		Name:       "USDT_USDC",
		FromAsset:  "USDT",
		MidAsset:   "APT",
		ToAsset:    "USDC",
		OracleFrom: "usdt",
		OracleTo:   "usdc",
	},
	"APT_USDC": {
		Name:       "APT_USDC",
		FromAsset:  "APT",
		MidAsset:   "USDT",
		ToAsset:    "USDC",
		OracleFrom: "apt",
		OracleTo:   "usdc",
	},
	"APT_USDT": {
		Name:       "APT_USDT",
		FromAsset:  "APT",
		MidAsset:   "USDC",
		ToAsset:    "USDT",
		OracleFrom: "apt",
		OracleTo:   "usdt",
	},
}

// ResolveRoute looks up a route by its catalog key.
func ResolveRoute(key string) (types.Route, error) {
	route, ok := catalog[key]
	if !ok {
		return types.Route{}, ErrRouteNotFound
	}
	return route, nil
}

// Routes returns every catalog route in rotation order.
func Routes() []types.Route {
	routes := make([]types.Route, 0, len(routeOrder))
	for _, key := range routeOrder {
		routes = append(routes, catalog[key])
	}
	return routes
}

// NextRoute returns the route that follows the given key in rotation order.
// An unknown key starts the rotation from the beginning.
func NextRoute(current string) types.Route {
	for i, key := range routeOrder {
		if key == current {
			return catalog[routeOrder[(i+1)%len(routeOrder)]]
		}
	}
	return catalog[routeOrder[0]]
}
