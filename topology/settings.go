package topology

import (
	"time"

	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
	"github.com/coredb/sdam/event"
	"github.com/coredb/sdam/internal/logger"
)

// DefaultServerSelectionTimeout is used when Settings.ServerSelectionTimeout
// is zero.
const DefaultServerSelectionTimeout = 30 * time.Second

// Settings configures a MultiServerCluster (spec.md §3, ClusterSettings).
type Settings struct {
	// Mode is Single (one fixed seed member for the cluster's lifetime) or
	// Multiple (the full state machine in spec.md §4 applies).
	Mode description.ConnectionMode

	// Hosts is the non-empty seed list.
	Hosts []address.Address

	// RequiredClusterType, when RequiredClusterTypeSet is true, pins the
	// cluster's kind: incompatible notifications cause their sender to be
	// removed instead of changing the cluster's kind (spec.md §4 step 5).
	RequiredClusterType    description.ClusterKind
	RequiredClusterTypeSet bool

	// RequiredReplicaSetName, when non-empty, rejects members reporting a
	// different SetName (spec.md §4 step 4).
	RequiredReplicaSetName string

	// Factory constructs the per-address Server monitor (spec.md §6). It
	// must be non-nil.
	Factory ServerFactory

	// ServerSelectionTimeout bounds SelectServer waits. Defaults to
	// DefaultServerSelectionTimeout.
	ServerSelectionTimeout time.Duration

	// Monitor, if non-nil, receives the SDAM events described in
	// SPEC_FULL.md §4.1. Optional.
	Monitor *event.ServerMonitor

	// Logger, if non-nil, receives structured log messages for topology
	// changes. Optional.
	Logger *logger.Logger
}

func (s Settings) serverSelectionTimeout() time.Duration {
	if s.ServerSelectionTimeout > 0 {
		return s.ServerSelectionTimeout
	}
	return DefaultServerSelectionTimeout
}
