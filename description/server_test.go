package description

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredb/sdam/address"
)

func TestValidateRejectsNotOkWithKind(t *testing.T) {
	d := Server{
		Address: address.New("h1:27017"),
		Kind:    ReplicaSetPrimary,
		State:   Connected,
		Ok:      false,
	}
	require.False(t, d.Validate())

	sanitized := d.Sanitize()
	assert.Equal(t, Unknown, sanitized.Kind)
	assert.Equal(t, Connecting, sanitized.State)
	assert.False(t, sanitized.Ok)
	assert.True(t, sanitized.Address.Equal(d.Address))
}

func TestValidateRejectsReplicaSetWithoutSetName(t *testing.T) {
	d := Server{
		Address: address.New("h1:27017"),
		Kind:    ReplicaSetSecondary,
		State:   Connected,
		Ok:      true,
	}
	require.False(t, d.Validate())
}

func TestValidateAcceptsWellFormedDescriptions(t *testing.T) {
	d := Server{
		Address: address.New("h1:27017"),
		Kind:    ReplicaSetPrimary,
		State:   Connected,
		Ok:      true,
		SetName: "rs0",
	}
	require.True(t, d.Validate())
	assert.Equal(t, d, d.Sanitize())
}

func TestImpliedClusterKind(t *testing.T) {
	cases := []struct {
		name        string
		d           Server
		memberCount int
		wantKind    ClusterKind
		wantOK      bool
	}{
		{"mongos", Server{Kind: ShardRouter}, 3, ClusterSharded, true},
		{"primary", Server{Kind: ReplicaSetPrimary, SetName: "rs0"}, 3, ClusterReplicaSet, true},
		{"lone standalone", Server{Kind: StandAlone}, 1, ClusterStandAlone, true},
		{"standalone among peers", Server{Kind: StandAlone}, 2, 0, false},
		{"unknown", Server{Kind: Unknown}, 1, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, ok := tc.d.ImpliedClusterKind(tc.memberCount)
			assert.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.wantKind, kind)
			}
		})
	}
}

func TestImpliesPeers(t *testing.T) {
	assert.True(t, Server{Kind: ReplicaSetPrimary}.ImpliesPeers())
	assert.True(t, Server{Kind: ShardRouter}.ImpliesPeers())
	assert.False(t, Server{Kind: StandAlone}.ImpliesPeers())
	assert.False(t, Server{Kind: Unknown}.ImpliesPeers())
}
