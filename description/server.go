// Package description holds the immutable snapshots the topology package
// merges: a ServerDescription per member, and the ClusterDescription that
// aggregates them.
package description

import (
	"time"

	"github.com/coredb/sdam/address"
)

// ServerKind classifies the role a server plays, as reported by its own
// last heartbeat.
type ServerKind uint32

// The server kinds a heartbeat reply can imply. Order is not significant;
// values are stable across the package for logging.
const (
	Unknown ServerKind = iota
	StandAlone
	ReplicaSetPrimary
	ReplicaSetSecondary
	ReplicaSetArbiter
	ReplicaSetOther
	ReplicaSetGhost
	ShardRouter
)

// String implements fmt.Stringer.
func (k ServerKind) String() string {
	switch k {
	case StandAlone:
		return "Standalone"
	case ReplicaSetPrimary:
		return "RSPrimary"
	case ReplicaSetSecondary:
		return "RSSecondary"
	case ReplicaSetArbiter:
		return "RSArbiter"
	case ReplicaSetOther:
		return "RSOther"
	case ReplicaSetGhost:
		return "RSGhost"
	case ShardRouter:
		return "Mongos"
	default:
		return "Unknown"
	}
}

// IsReplicaSetMember reports whether k is one of the ReplicaSet* kinds.
func (k ServerKind) IsReplicaSetMember() bool {
	switch k {
	case ReplicaSetPrimary, ReplicaSetSecondary, ReplicaSetArbiter, ReplicaSetOther, ReplicaSetGhost:
		return true
	default:
		return false
	}
}

// ConnectionState is whether a server's connection is still being
// established or has completed its first successful heartbeat.
type ConnectionState uint32

const (
	// Connecting is the initial state of every member, and the state a
	// demoted or not-ok member reverts to.
	Connecting ConnectionState = iota
	// Connected is reached once an ok heartbeat has been observed.
	Connected
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	if s == Connected {
		return "Connected"
	}
	return "Connecting"
}

// Server is an immutable snapshot of a server's last observed state. Two
// Servers are compared by value; a new notification always produces a new
// Server rather than mutating one in place.
type Server struct {
	Address address.Address
	Kind    ServerKind
	State   ConnectionState
	Ok      bool

	// Hosts are the peer addresses this server advertises; empty when
	// unknown or not authoritative (see description.ImpliesPeers).
	Hosts address.Set

	// SetName is the replica-set name as reported, or "" when absent.
	SetName string

	// Passthrough metadata: the core never interprets these fields for
	// membership, type-transition, or tie-break purposes. They exist so a
	// ServerSelector (external collaborator) and the logging layer have
	// something real to read.
	AverageRTT     time.Duration
	RTTSet         bool
	Tags           map[string]string
	MaxWireVersion int32
	MinWireVersion int32
	LastWriteDate  time.Time
	LastUpdateTime time.Time
	ElectionID     string
}

// UnknownServer returns the canonical "not yet observed" description for addr:
// Kind Unknown, State Connecting, Ok false. This is also the description a
// member gets demoted to by primary invalidation (spec step 8) and the
// description synthesized for a failed heartbeat.
func UnknownServer(addr address.Address) Server {
	return Server{
		Address: addr,
		Kind:    Unknown,
		State:   Connecting,
		Ok:      false,
	}
}

// Validate enforces the two invariants spec.md §3 places on a
// ServerDescription:
//
//   - Ok == false implies Kind == Unknown and State == Connecting.
//   - a ReplicaSet* Kind implies SetName is non-empty.
//
// A description failing Validate is treated by the monitor as equivalent to
// a failed heartbeat (§7: "impossible combinations... are treated as
// ok=false and dropped at step 3").
func (d Server) Validate() bool {
	if !d.Ok {
		return d.Kind == Unknown && d.State == Connecting
	}
	if d.Kind.IsReplicaSetMember() && d.SetName == "" {
		return false
	}
	return true
}

// Sanitize returns d if it passes Validate, or the canonical not-ok
// description for d.Address otherwise.
func (d Server) Sanitize() Server {
	if d.Validate() {
		return d
	}
	u := UnknownServer(d.Address)
	return u
}

// ImpliedClusterKind reports the ClusterKind this server's own Kind implies,
// given the current member count (needed only to disambiguate StandAlone,
// per spec.md §4 step 5). ok=false means "no implication" (Unknown Kind, or
// an incompatible StandAlone report).
func (d Server) ImpliedClusterKind(memberCount int) (kind ClusterKind, ok bool) {
	switch {
	case d.Kind == ShardRouter:
		return ClusterSharded, true
	case d.Kind.IsReplicaSetMember():
		return ClusterReplicaSet, true
	case d.Kind == StandAlone:
		if memberCount == 1 {
			return ClusterStandAlone, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ImpliesPeers reports whether d.Hosts is authoritative for peer
// reconciliation (spec.md §4 step 9: only ReplicaSet* and ShardRouter
// reports carry an authoritative hosts list).
func (d Server) ImpliesPeers() bool {
	return d.Kind.IsReplicaSetMember() || d.Kind == ShardRouter
}
