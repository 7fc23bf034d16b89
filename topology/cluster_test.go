package topology_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
	"github.com/coredb/sdam/topology"
	"github.com/coredb/sdam/topology/topologytest"
)

func addrs(ss ...string) []address.Address {
	out := make([]address.Address, len(ss))
	for i, s := range ss {
		out[i] = address.New(s)
	}
	return out
}

func primary(addr string, setName string, hosts ...string) description.Server {
	return description.Server{
		Address: address.New(addr),
		Kind:    description.ReplicaSetPrimary,
		State:   description.Connected,
		Ok:      true,
		SetName: setName,
		Hosts:   address.NewSet(addrs(hosts...)...),
	}
}

func secondary(addr string, setName string, ok bool, hosts ...string) description.Server {
	return description.Server{
		Address: address.New(addr),
		Kind:    description.ReplicaSetSecondary,
		State:   description.Connected,
		Ok:      ok,
		SetName: setName,
		Hosts:   address.NewSet(addrs(hosts...)...),
	}
}

func standalone(addr string) description.Server {
	return description.Server{
		Address: address.New(addr),
		Kind:    description.StandAlone,
		State:   description.Connected,
		Ok:      true,
	}
}

func newMultipleCluster(t *testing.T, seeds []string, configure func(*topology.Settings)) (*topology.MultiServerCluster, *topologytest.TestServerFactory) {
	t.Helper()
	factory := topologytest.NewTestServerFactory()
	settings := topology.Settings{
		Mode:    description.Multiple,
		Hosts:   addrs(seeds...),
		Factory: factory,
	}
	if configure != nil {
		configure(&settings)
	}
	c, err := topology.New(settings)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, factory
}

// --- S1 ---

func TestS1InitialDescriptionIsConnecting(t *testing.T) {
	c, _ := newMultipleCluster(t, []string{"h1:27017"}, nil)

	desc := c.Description()
	assert.Equal(t, description.ClusterUnknown, desc.Kind)
	assert.True(t, desc.IsConnecting())
	require.Len(t, desc.Servers, 1)
	assert.True(t, desc.Servers[0].Address.Equal(address.New("h1:27017")))
	assert.Equal(t, description.Connecting, desc.Servers[0].State)
}

// --- S2 ---

func TestS2ReplicaSetDiscovery(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017"}, nil)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27018", "h3:27019"))

	desc := c.Description()
	assert.Equal(t, description.ClusterReplicaSet, desc.Kind)
	gotAddrs := address.NewSet(desc.Addresses()...)
	want := address.NewSet(addrs("h1:27017", "h2:27018", "h3:27019")...)
	assert.True(t, gotAddrs.Equal(want))
}

// --- S3 ---

func TestS3PrimaryFailover(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017", "h2:27017"}, nil)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27017"))
	factory.Notify(address.New("h2:27017"), primary("h2:27017", "rs0", "h1:27017", "h2:27017"))

	desc := c.Description()
	h1, ok := desc.Server(address.New("h1:27017"))
	require.True(t, ok)
	assert.Equal(t, description.Unknown, h1.Kind)
	assert.Equal(t, description.Connecting, h1.State)

	h2, ok := desc.Server(address.New("h2:27017"))
	require.True(t, ok)
	assert.Equal(t, description.ReplicaSetPrimary, h2.Kind)
}

// --- S4 ---

func TestS4StandaloneWithManyHostsIsPruned(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017", "h2:27017"}, nil)

	factory.Notify(address.New("h1:27017"), standalone("h1:27017"))
	factory.Notify(address.New("h2:27017"), primary("h2:27017", "rs0", "h2:27017", "h3:27017"))

	desc := c.Description()
	_, ok := desc.Server(address.New("h1:27017"))
	assert.False(t, ok)
	assert.Equal(t, description.ClusterReplicaSet, desc.Kind)

	got := address.NewSet(desc.Addresses()...)
	want := address.NewSet(addrs("h2:27017", "h3:27017")...)
	assert.True(t, got.Equal(want))
}

// --- S5 ---

func TestS5RequiredSetNameRejectsMismatchedMember(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h2:27017"}, func(s *topology.Settings) {
		s.RequiredReplicaSetName = "test1"
	})

	factory.Notify(address.New("h2:27017"), primary("h2:27017", "test2", "h1:27017", "h2:27017", "h3:27017"))

	desc := c.Description()
	assert.Equal(t, description.ClusterReplicaSet, desc.Kind)
	assert.Empty(t, desc.Servers)
}

// --- S6 ---

func TestS6AliasResolution(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"alias:27017"}, nil)

	factory.Notify(address.New("alias:27017"), primary("alias:27017", "rs0", "h1:27017", "h2:27017", "h3:27017"))

	desc := c.Description()
	got := address.NewSet(desc.Addresses()...)
	want := address.NewSet(addrs("h1:27017", "h2:27017", "h3:27017")...)
	assert.True(t, got.Equal(want))

	_, ok := desc.Server(address.New("alias:27017"))
	assert.False(t, ok)
}

// --- S7 ---

func TestS7IgnoreNotOkNotificationsForMembership(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017", "h2:27017"}, nil)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27017", "h3:27017"))
	factory.Notify(address.New("h2:27017"), secondary("h2:27017", "", false))

	desc := c.Description()
	got := address.NewSet(desc.Addresses()...)
	want := address.NewSet(addrs("h1:27017", "h2:27017", "h3:27017")...)
	assert.True(t, got.Equal(want))

	h2, ok := desc.Server(address.New("h2:27017"))
	require.True(t, ok)
	assert.False(t, h2.Ok)
}

// --- invariants (spec.md §8) ---

func TestClosedIdempotence(t *testing.T) {
	c, _ := newMultipleCluster(t, []string{"h1:27017"}, nil)

	c.Close()
	c.Close() // must not panic, must produce no additional events

	_, err := c.GetServer(address.New("h1:27017"))
	var closedErr *topology.ClosedError
	assert.ErrorAs(t, err, &closedErr)
}

func TestUnknownMemberImmunity(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017"}, nil)
	before := c.Description()

	// Not a member: Notify is a no-op since TestServerFactory never created
	// a Server for h9, so there's nothing to route a notification through.
	factory.Notify(address.New("h9:27017"), primary("h9:27017", "rs0", "h9:27017"))

	assert.Equal(t, before, c.Description())
}

func TestTypeMonotonicityUnderRequirement(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017"}, func(s *topology.Settings) {
		s.RequiredClusterType = description.ClusterSharded
		s.RequiredClusterTypeSet = true
	})

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017"))

	desc := c.Description()
	assert.Equal(t, description.ClusterSharded, desc.Kind)
	assert.Empty(t, desc.Servers)
}

func TestAtMostOnePrimary(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017", "h2:27017", "h3:27017"}, nil)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27017", "h3:27017"))
	factory.Notify(address.New("h2:27017"), secondary("h2:27017", "rs0", true, "h1:27017", "h2:27017", "h3:27017"))
	factory.Notify(address.New("h3:27017"), primary("h3:27017", "rs0", "h1:27017", "h2:27017", "h3:27017"))

	desc := c.Description()
	primaries := 0
	for _, s := range desc.Servers {
		if s.Kind == description.ReplicaSetPrimary {
			primaries++
		}
	}
	assert.LessOrEqual(t, primaries, 1)
}

func TestChangeEventCorrectness(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017"}, nil)

	var mu sync.Mutex
	var events1, events2 []topology.ChangeEvent

	l1 := topology.ChangeListenerFunc(func(e topology.ChangeEvent) {
		mu.Lock()
		events1 = append(events1, e)
		mu.Unlock()
	})
	l2 := topology.ChangeListenerFunc(func(e topology.ChangeEvent) {
		mu.Lock()
		events2 = append(events2, e)
		mu.Unlock()
	})

	c.AddChangeListener(l1)
	h2 := c.AddChangeListener(l2)

	factory.Notify(address.New("h1:27017"), standalone("h1:27017"))

	c.RemoveChangeListener(h2)

	factory.Notify(address.New("h1:27017"), description.Server{
		Address: address.New("h1:27017"), Kind: description.StandAlone, State: description.Connected, Ok: true,
	})

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(events1), 1)
	assert.Equal(t, 1, len(events2)) // removed before the second notification's (no-op) publish
}

func TestGetServerNotFoundAndClosed(t *testing.T) {
	c, _ := newMultipleCluster(t, []string{"h1:27017"}, nil)

	_, err := c.GetServer(address.New("h9:27017"))
	var notFound *topology.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	c.Close()
	_, err = c.GetServer(address.New("h1:27017"))
	var closedErr *topology.ClosedError
	assert.ErrorAs(t, err, &closedErr)
}

func TestSelectServerTimesOutWithNoMatch(t *testing.T) {
	c, _ := newMultipleCluster(t, []string{"h1:27017"}, func(s *topology.Settings) {
		s.ServerSelectionTimeout = 50 * time.Millisecond
	})

	_, err := c.SelectServer(context.Background(), topology.AnyServerSelector)
	var timeoutErr *topology.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestSelectServerReturnsOnceConnected(t *testing.T) {
	c, factory := newMultipleCluster(t, []string{"h1:27017"}, func(s *topology.Settings) {
		s.ServerSelectionTimeout = time.Second
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		factory.Notify(address.New("h1:27017"), standalone("h1:27017"))
	}()

	s, err := c.SelectServer(context.Background(), topology.AnyServerSelector)
	require.NoError(t, err)
	assert.True(t, s.Address().Equal(address.New("h1:27017")))
}

func TestSingleModeSkipsPeerReconciliation(t *testing.T) {
	factory := topologytest.NewTestServerFactory()
	c, err := topology.New(topology.Settings{
		Mode:    description.Single,
		Hosts:   addrs("h1:27017"),
		Factory: factory,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27017", "h3:27017"))

	desc := c.Description()
	require.Len(t, desc.Servers, 1)
	assert.True(t, desc.Servers[0].Address.Equal(address.New("h1:27017")))
}

func TestFactoryErrorSkipsMember(t *testing.T) {
	factory := topologytest.NewTestServerFactory()
	factory.FailNextCreate(address.New("h2:27017"), assertErr{})

	c, err := topology.New(topology.Settings{
		Mode:    description.Multiple,
		Hosts:   addrs("h1:27017"),
		Factory: factory,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	factory.Notify(address.New("h1:27017"), primary("h1:27017", "rs0", "h1:27017", "h2:27017"))

	desc := c.Description()
	_, ok := desc.Server(address.New("h2:27017"))
	assert.False(t, ok)
}

type assertErr struct{}

func (assertErr) Error() string { return "factory configured to fail" }
