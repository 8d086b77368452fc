package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRoute(t *testing.T) {
	route, err := ResolveRoute("USDC_USDT")
	require.NoError(t, err)
	assert.Equal(t, "USDC", route.FromAsset)
	assert.Equal(t, "APT", route.MidAsset)
	assert.Equal(t, "USDT", route.ToAsset)
	assert.Equal(t, "usdc", route.OracleFrom)
	assert.Equal(t, "usdt", route.OracleTo)
}

func TestResolveRouteUnknown(t *testing.T) {
	_, err := ResolveRoute("BTC_ETH")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestRoutesRotationOrder(t *testing.T) {
	routes := Routes()
	require.Len(t, routes, 4)
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"USDC_USDT", "USDT_USDC", "APT_USDC", "APT_USDT"}, names)
}

func TestNextRouteWraps(t *testing.T) {
	assert.Equal(t, "USDT_USDC", NextRoute("USDC_USDT").Name)
	assert.Equal(t, "USDC_USDT", NextRoute("APT_USDT").Name)
	// Unknown keys restart the rotation.
	assert.Equal(t, "USDC_USDT", NextRoute("nope").Name)
}

func TestRoutesAreTriangular(t *testing.T) {
	for _, route := range Routes() {
		assert.NotEqual(t, route.FromAsset, route.ToAsset, route.Name)
		assert.NotEqual(t, route.FromAsset, route.MidAsset, route.Name)
		assert.NotEqual(t, route.MidAsset, route.ToAsset, route.Name)
	}
}
