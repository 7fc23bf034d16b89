// Package event defines the SDAM monitoring events MultiServerCluster emits
// alongside the core ChangeListener callback, mirroring the event surface a
// real database driver exposes for observability tooling (APM integrations,
// metrics exporters) independent of its internal state machine.
//
// These events are purely observational: nothing in the topology package's
// convergence logic reads them back.
package event

import (
	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
)

// ServerOpeningEvent fires when the monitor creates a Server handle for a
// newly discovered peer.
type ServerOpeningEvent struct {
	Address address.Address
}

// ServerClosedEvent fires when the monitor tears down a Server handle,
// whether from set-name/type-filter rejection or peer reconciliation.
type ServerClosedEvent struct {
	Address address.Address
}

// ServerDescriptionChangedEvent fires whenever a member's stored
// ServerDescription is replaced, including the synthetic demotion a
// secondary primary report causes.
type ServerDescriptionChangedEvent struct {
	Address             address.Address
	PreviousDescription description.Server
	NewDescription      description.Server
}

// TopologyOpeningEvent fires once, when a MultiServerCluster is constructed.
type TopologyOpeningEvent struct{}

// TopologyClosedEvent fires once, when Close is called.
type TopologyClosedEvent struct{}

// TopologyDescriptionChangedEvent fires on every successful publish of a new
// ClusterDescription (a superset of the core's ChangeEvent).
type TopologyDescriptionChangedEvent struct {
	PreviousDescription description.Cluster
	NewDescription      description.Cluster
}

// ServerMonitor is the sink SDAM events are delivered to. Every field is
// optional; a nil field, or a nil *ServerMonitor, is simply not invoked.
// Implementations must return promptly and must not call back into the
// cluster that is invoking them.
type ServerMonitor struct {
	ServerOpening              func(*ServerOpeningEvent)
	ServerClosed               func(*ServerClosedEvent)
	ServerDescriptionChanged   func(*ServerDescriptionChangedEvent)
	TopologyOpening            func(*TopologyOpeningEvent)
	TopologyClosed             func(*TopologyClosedEvent)
	TopologyDescriptionChanged func(*TopologyDescriptionChangedEvent)
}

// FireServerOpening invokes m.ServerOpening if m and the field are non-nil.
func (m *ServerMonitor) FireServerOpening(e *ServerOpeningEvent) {
	if m != nil && m.ServerOpening != nil {
		m.ServerOpening(e)
	}
}

// FireServerClosed invokes m.ServerClosed if m and the field are non-nil.
func (m *ServerMonitor) FireServerClosed(e *ServerClosedEvent) {
	if m != nil && m.ServerClosed != nil {
		m.ServerClosed(e)
	}
}

// FireServerDescriptionChanged invokes m.ServerDescriptionChanged if m and
// the field are non-nil.
func (m *ServerMonitor) FireServerDescriptionChanged(e *ServerDescriptionChangedEvent) {
	if m != nil && m.ServerDescriptionChanged != nil {
		m.ServerDescriptionChanged(e)
	}
}

// FireTopologyOpening invokes m.TopologyOpening if m and the field are
// non-nil.
func (m *ServerMonitor) FireTopologyOpening(e *TopologyOpeningEvent) {
	if m != nil && m.TopologyOpening != nil {
		m.TopologyOpening(e)
	}
}

// FireTopologyClosed invokes m.TopologyClosed if m and the field are
// non-nil.
func (m *ServerMonitor) FireTopologyClosed(e *TopologyClosedEvent) {
	if m != nil && m.TopologyClosed != nil {
		m.TopologyClosed(e)
	}
}

// FireTopologyDescriptionChanged invokes m.TopologyDescriptionChanged if m
// and the field are non-nil.
func (m *ServerMonitor) FireTopologyDescriptionChanged(e *TopologyDescriptionChangedEvent) {
	if m != nil && m.TopologyDescriptionChanged != nil {
		m.TopologyDescriptionChanged(e)
	}
}
