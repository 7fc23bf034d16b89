// Package topology implements the cluster state machine: MultiServerCluster
// merges asynchronous per-server notifications into a single, consistent
// ClusterDescription, fires change events, and honors required-type /
// required-set constraints. See SPEC_FULL.md §4 for the full algorithm.
package topology

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
	"github.com/coredb/sdam/event"
	"github.com/coredb/sdam/internal/logger"
)

// ErrNoSeeds is returned by New when Settings.Hosts is empty.
var ErrNoSeeds = errors.New("sdam: ClusterSettings.Hosts must be non-empty")

// ErrNoFactory is returned by New when Settings.Factory is nil.
var ErrNoFactory = errors.New("sdam: ClusterSettings.Factory must be non-nil")

// MultiServerCluster is the state machine described in SPEC_FULL.md §4. It
// merges incoming ServerDescriptions, adjusts membership, and maintains the
// published ClusterDescription.
type MultiServerCluster struct {
	settings Settings

	// mu guards every field below except publishedDesc, which is read
	// lock-free via an atomic.Value (spec.md §5: "description() reads the
	// last published value without taking that lock").
	mu          sync.Mutex
	members     map[address.Address]*Server
	clusterKind description.ClusterKind
	setName     string
	closed      bool
	listeners   listenerRegistry

	publishedDesc atomic.Value // description.Cluster

	cond *sync.Cond
}

// New constructs a MultiServerCluster from settings, creates one Server per
// seed address, and publishes an initial ClusterDescription with every
// member in Connecting state (spec.md §3, "Lifecycle").
func New(settings Settings) (*MultiServerCluster, error) {
	if len(settings.Hosts) == 0 {
		return nil, ErrNoSeeds
	}
	if settings.Factory == nil {
		return nil, ErrNoFactory
	}

	c := &MultiServerCluster{
		settings: settings,
		members:  make(map[address.Address]*Server),
	}
	c.cond = sync.NewCond(&c.mu)

	if settings.RequiredClusterTypeSet {
		c.clusterKind = settings.RequiredClusterType
	}
	// A required replica-set name implies ReplicaSet regardless of whether
	// RequiredClusterType was set explicitly (spec.md §4, "Required set,
	// empty result": the published type is ReplicaSet even before any
	// member is accepted).
	if settings.RequiredReplicaSetName != "" {
		c.clusterKind = description.ClusterReplicaSet
		c.setName = settings.RequiredReplicaSetName
	}

	c.mu.Lock()
	for _, addr := range settings.Hosts {
		c.addMemberLocked(addr)
	}
	c.mu.Unlock()

	c.recomputeAndPublish()

	if c.settings.Logger != nil {
		seeds := make([]string, len(settings.Hosts))
		for i, a := range settings.Hosts {
			seeds[i] = a.String()
		}
		c.settings.Logger.Print(logger.LevelInfo, logger.TopologyOpeningMessage{Seeds: seeds})
	}
	c.settings.Monitor.FireTopologyOpening(&event.TopologyOpeningEvent{})

	return c, nil
}

// GetServer returns the Server handle for addr.
func (c *MultiServerCluster) GetServer(addr address.Address) (*Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &ClosedError{Op: "GetServer"}
	}
	s, ok := c.members[addr]
	if !ok {
		return nil, &NotFoundError{Address: stringerOf(addr.String())}
	}
	return s, nil
}

// SelectServer blocks until selector matches at least one Connected member,
// ctx is done, or timeout elapses, whichever comes first.
func (c *MultiServerCluster) SelectServer(ctx context.Context, selector ServerSelector) (*Server, error) {
	timeout := c.settings.serverSelectionTimeout()
	deadline := time.Now().Add(timeout)

	// Wake any blocked Wait() below on whichever of ctx expiring or the
	// deadline elapsing comes first; done lets the loop's own return stop
	// this goroutine once a match (or another exit condition) is found.
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.cond.Broadcast()
		case <-timer.C:
			c.cond.Broadcast()
		case <-done:
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.closed {
			return nil, &ClosedError{Op: "SelectServer"}
		}

		desc := c.Description()
		matches := selector(desc)
		if len(matches) > 0 {
			for _, m := range matches {
				if s, ok := c.members[m.Address]; ok {
					return s, nil
				}
			}
		} else if !desc.IsConnecting() {
			return nil, &NoMatchingServerError{}
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			if c.settings.Logger != nil {
				c.settings.Logger.Print(logger.LevelDebug, logger.ServerSelectionTimeoutMessage{Timeout: timeout.String()})
			}
			return nil, &TimeoutError{Timeout: stringerOf(timeout.String())}
		}

		c.cond.Wait()
	}
}

// Description returns the current ClusterDescription. Never blocks, never
// fails.
func (c *MultiServerCluster) Description() description.Cluster {
	v := c.publishedDesc.Load()
	if v == nil {
		return description.Cluster{ConnectionMode: c.settings.Mode, Kind: description.ClusterUnknown}
	}
	return v.(description.Cluster)
}

// AddChangeListener registers l to receive future ChangeEvents, returning a
// handle for later removal. It takes the cluster's lock, so it serializes
// against notification handling; calling it from within OnChange deadlocks
// (see ChangeListener).
func (c *MultiServerCluster) AddChangeListener(l ChangeListener) ListenerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listeners.add(l)
}

// RemoveChangeListener unregisters the listener registered under h.
// Idempotent.
func (c *MultiServerCluster) RemoveChangeListener(h ListenerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners.remove(h)
}

// Close tears down every Server handle and publishes a final
// ClusterDescription if the cluster is not already terminal. Idempotent.
func (c *MultiServerCluster) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	for addr, s := range c.members {
		s.Close()
		c.settings.Factory.Destroy(s)
		delete(c.members, addr)
	}
	c.recomputeAndPublishLocked()
	c.cond.Broadcast()
	c.mu.Unlock()

	if c.settings.Logger != nil {
		c.settings.Logger.Print(logger.LevelInfo, logger.TopologyClosedMessage{})
	}
	c.settings.Monitor.FireTopologyClosed(&event.TopologyClosedEvent{})
}

// --- notification handling: spec.md §4 ---

// onNotification is the notifyFunc every member's Server invokes. addr is
// captured by value at Server-creation time (the "weak callback" in spec.md
// §9): a notification for an address no longer in members is a no-op, not a
// resurrection.
func (c *MultiServerCluster) onNotification(addr address.Address, d description.Server) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 1: drop if closed.
	if c.closed {
		return
	}

	// Step 2: drop if unknown member.
	if _, ok := c.members[addr]; !ok {
		return
	}

	// The member's Server has already stored d; report the replacement
	// against that member's entry in the last published description.
	if prev, ok := c.Description().Server(addr); ok {
		c.settings.Monitor.FireServerDescriptionChanged(&event.ServerDescriptionChangedEvent{
			Address: addr, PreviousDescription: prev, NewDescription: d,
		})
		if c.settings.Logger != nil {
			c.settings.Logger.Print(logger.LevelDebug, logger.ServerDescriptionChangedMessage{
				Address:  addr.String(),
				Previous: prev.Kind.String(),
				New:      d.Kind.String(),
			})
		}
	}

	// Step 3: drop if not ok. The member's own Server already stored d
	// (Server.SendNotification ran before this callback); only the
	// published description needs to catch up.
	if !d.Ok {
		c.recomputeAndPublishLocked()
		return
	}

	// Step 4: required set-name filter.
	if c.settings.RequiredReplicaSetName != "" && d.SetName != c.settings.RequiredReplicaSetName {
		c.removeMemberLocked(addr)
		c.recomputeAndPublishLocked()
		return
	}

	implied, impliedOK := d.ImpliedClusterKind(len(c.members))

	// Step 5: required cluster type filter.
	if c.settings.RequiredClusterTypeSet && impliedOK && implied != c.settings.RequiredClusterType {
		c.removeMemberLocked(addr)
		c.recomputeAndPublishLocked()
		return
	}

	// Step 6: cluster-type transition (monotonic: only from Unknown).
	if c.clusterKind == description.ClusterUnknown && impliedOK {
		c.clusterKind = implied
		if implied == description.ClusterReplicaSet && c.setName == "" {
			c.setName = d.SetName
		}
	}

	// Step 7: wrong-type removal, Multiple mode only.
	if c.settings.Mode == description.Multiple && c.clusterKind != description.ClusterUnknown {
		if c.isWrongTypeLocked(d) {
			c.removeMemberLocked(addr)
			c.recomputeAndPublishLocked()
			return
		}
	}

	// Step 8: primary invalidation.
	if d.Kind == description.ReplicaSetPrimary {
		c.invalidateOtherPrimariesLocked(addr)
	}

	// Step 9: peer reconciliation, Multiple mode only, only for
	// authoritative hosts lists.
	if c.settings.Mode == description.Multiple && d.ImpliesPeers() {
		c.reconcilePeersLocked(addr, d.Hosts)
	}

	// Step 10: StandAlone size rule, Multiple mode only.
	if c.settings.Mode == description.Multiple {
		c.pruneOversizedStandAloneLocked()
	}

	// Step 11: recompute and publish.
	c.recomputeAndPublishLocked()
}

func (c *MultiServerCluster) isWrongTypeLocked(d description.Server) bool {
	switch c.clusterKind {
	case description.ClusterReplicaSet:
		if d.Kind == description.StandAlone || d.Kind == description.ShardRouter {
			return true
		}
		if d.Kind.IsReplicaSetMember() && d.SetName != c.setName {
			return true
		}
	case description.ClusterSharded:
		if d.Kind != description.ShardRouter && d.Kind != description.Unknown {
			return true
		}
	}
	return false
}

func (c *MultiServerCluster) invalidateOtherPrimariesLocked(addr address.Address) {
	for otherAddr, s := range c.members {
		if otherAddr.Equal(addr) {
			continue
		}
		prev := s.Description()
		if prev.Kind != description.ReplicaSetPrimary {
			continue
		}
		next := description.UnknownServer(otherAddr)
		s.setDescription(next)

		c.settings.Monitor.FireServerDescriptionChanged(&event.ServerDescriptionChangedEvent{
			Address: otherAddr, PreviousDescription: prev, NewDescription: next,
		})
		if c.settings.Logger != nil {
			c.settings.Logger.Print(logger.LevelDebug, logger.ServerDescriptionChangedMessage{
				Address:  otherAddr.String(),
				Previous: prev.Kind.String(),
				New:      next.Kind.String(),
			})
		}
	}
}

// reconcilePeersLocked implements spec.md §4 step 9. Note that A (the
// sender) is not special-cased in the removal pass: if A reports a hosts
// list that does not include its own reporting address (the DNS-alias
// scenario in spec.md §4's tie-break notes), A is removed like any other
// orphaned member and the canonical address it advertised takes its place.
func (c *MultiServerCluster) reconcilePeersLocked(_ address.Address, hosts address.Set) {
	for b := range hosts {
		if _, ok := c.members[b]; !ok {
			c.addMemberLocked(b)
		}
	}

	var stale []address.Address
	for existing := range c.members {
		if !hosts.Contains(existing) {
			stale = append(stale, existing)
		}
	}
	for _, a := range stale {
		c.removeMemberLocked(a)
	}
}

func (c *MultiServerCluster) pruneOversizedStandAloneLocked() {
	if len(c.members) <= 1 {
		return
	}
	var toRemove []address.Address
	for a, s := range c.members {
		if s.Description().Kind == description.StandAlone {
			toRemove = append(toRemove, a)
		}
	}
	for _, a := range toRemove {
		c.removeMemberLocked(a)
	}
}

func (c *MultiServerCluster) addMemberLocked(addr address.Address) {
	notify := func(d description.Server) { c.onNotification(addr, d) }

	s, err := c.settings.Factory.Create(addr, notify)
	if err != nil {
		factoryErr := &FactoryError{Address: stringerOf(addr.String()), Err: err}
		if c.settings.Logger != nil {
			c.settings.Logger.Print(logger.LevelInfo, logger.FactoryErrorMessage{Address: addr.String(), Err: factoryErr})
		}
		return
	}

	c.members[addr] = s
	c.settings.Monitor.FireServerOpening(&event.ServerOpeningEvent{Address: addr})
	if c.settings.Logger != nil {
		c.settings.Logger.Print(logger.LevelDebug, logger.ServerOpeningMessage{Address: addr.String()})
	}
}

func (c *MultiServerCluster) removeMemberLocked(addr address.Address) {
	s, ok := c.members[addr]
	if !ok {
		return
	}
	delete(c.members, addr)
	s.Close()
	c.settings.Factory.Destroy(s)

	c.settings.Monitor.FireServerClosed(&event.ServerClosedEvent{Address: addr})
	if c.settings.Logger != nil {
		c.settings.Logger.Print(logger.LevelDebug, logger.ServerClosedMessage{Address: addr.String()})
	}
}

func (c *MultiServerCluster) recomputeAndPublishLocked() {
	servers := make([]description.Server, 0, len(c.members))
	for _, s := range c.members {
		servers = append(servers, s.Description())
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Address.String() < servers[j].Address.String()
	})

	next := description.Cluster{
		ConnectionMode: c.settings.Mode,
		Kind:           c.clusterKind,
		Servers:        servers,
	}
	prev := c.Description()

	if clusterDescriptionsEqual(prev, next) {
		return
	}

	c.publishedDesc.Store(next)
	c.cond.Broadcast()

	c.listeners.fire(ChangeEvent{Previous: prev, New: next}, func(r interface{}) {
		if c.settings.Logger != nil {
			c.settings.Logger.Print(logger.LevelInfo, logger.ListenerPanicMessage{Recovered: r})
		}
	})

	c.settings.Monitor.FireTopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
		PreviousDescription: prev, NewDescription: next,
	})
	if c.settings.Logger != nil {
		width := c.settings.Logger.MaxDocumentLength
		c.settings.Logger.Print(logger.LevelInfo, logger.NewTopologyDescriptionChangedMessage(prev, next, width))
	}
}

func (c *MultiServerCluster) recomputeAndPublish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recomputeAndPublishLocked()
}

// clusterDescriptionsEqual compares by value over Kind, ConnectionMode, and
// the set of member descriptions (spec.md §4 step 11), ignoring member
// order (sorted above for determinism, but comparison shouldn't depend on
// it either).
func clusterDescriptionsEqual(a, b description.Cluster) bool {
	return cmp.Equal(a, b, cmpopts.SortSlices(func(x, y description.Server) bool {
		return x.Address.String() < y.Address.String()
	}), cmp.Comparer(func(x, y address.Address) bool { return x.Equal(y) }))
}

type stringerString string

func (s stringerString) String() string { return string(s) }

func stringerOf(s string) stringerString { return stringerString(s) }
