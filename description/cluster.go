package description

import "github.com/coredb/sdam/address"

// ClusterKind classifies the deployment a ClusterDescription currently
// believes it is looking at.
type ClusterKind uint32

const (
	// ClusterUnknown is the initial kind, before any compatible
	// notification has been observed. Under a RequiredClusterType pin (or a
	// required replica-set name) the pinned kind is used from the start
	// instead.
	ClusterUnknown ClusterKind = iota
	ClusterReplicaSet
	ClusterSharded
	ClusterStandAlone
)

// String implements fmt.Stringer.
func (k ClusterKind) String() string {
	switch k {
	case ClusterReplicaSet:
		return "ReplicaSet"
	case ClusterSharded:
		return "Sharded"
	case ClusterStandAlone:
		return "Standalone"
	default:
		return "Unknown"
	}
}

// ConnectionMode is whether the monitor treats its seed list as a single
// fixed server or as the entry point to a multi-member deployment.
type ConnectionMode uint32

const (
	// Single mode: exactly one member exists for the monitor's lifetime;
	// peer reconciliation and type-filter removal (spec.md §4 steps 7-9)
	// are skipped.
	Single ConnectionMode = iota
	// Multiple mode: the full state machine in spec.md §4 applies.
	Multiple
)

// String implements fmt.Stringer.
func (m ConnectionMode) String() string {
	if m == Single {
		return "Single"
	}
	return "Multiple"
}

// Cluster is an immutable snapshot of the whole topology: its connection
// mode, its classified kind, and every live member's own description.
type Cluster struct {
	ConnectionMode ConnectionMode
	Kind           ClusterKind
	Servers        []Server
}

// IsConnecting is true iff any member is still Connecting, or there are no
// members at all (spec.md §3).
func (c Cluster) IsConnecting() bool {
	if len(c.Servers) == 0 {
		return true
	}
	for _, s := range c.Servers {
		if s.State == Connecting {
			return true
		}
	}
	return false
}

// Addresses returns the address of every member, in the same order as
// Servers.
func (c Cluster) Addresses() []address.Address {
	out := make([]address.Address, len(c.Servers))
	for i, s := range c.Servers {
		out[i] = s.Address
	}
	return out
}

// Server returns the member at addr and true, or the zero Server and false.
func (c Cluster) Server(addr address.Address) (Server, bool) {
	for _, s := range c.Servers {
		if s.Address.Equal(addr) {
			return s, true
		}
	}
	return Server{}, false
}
