package description

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coredb/sdam/address"
)

func TestIsConnectingEmptyOrAnyConnecting(t *testing.T) {
	assert.True(t, Cluster{}.IsConnecting())

	c := Cluster{Servers: []Server{
		{Address: address.New("h1:27017"), State: Connected},
		{Address: address.New("h2:27017"), State: Connecting},
	}}
	assert.True(t, c.IsConnecting())

	c2 := Cluster{Servers: []Server{
		{Address: address.New("h1:27017"), State: Connected},
	}}
	assert.False(t, c2.IsConnecting())
}

func TestClusterServerLookup(t *testing.T) {
	h1 := address.New("h1:27017")
	c := Cluster{Servers: []Server{{Address: h1, Kind: ReplicaSetPrimary}}}

	got, ok := c.Server(h1)
	assert.True(t, ok)
	assert.Equal(t, ReplicaSetPrimary, got.Kind)

	_, ok = c.Server(address.New("h9:27017"))
	assert.False(t, ok)
}
