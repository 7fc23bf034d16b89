package topology

import "github.com/coredb/sdam/description"

// ServerSelector is a pure function choosing the subset of a cluster's
// members matching some read/write policy. It is an external collaborator
// (spec.md §6): the core applies a selector but never defines one beyond
// the trivial cases below. Implementations must not retain references to
// the description passed in.
type ServerSelector func(desc description.Cluster) []description.Server

// AnyServerSelector matches every Connected member. It exists for tests; a
// real driver's read-preference
// and write-concern selectors live outside this module entirely.
func AnyServerSelector(desc description.Cluster) []description.Server {
	out := make([]description.Server, 0, len(desc.Servers))
	for _, s := range desc.Servers {
		if s.State == description.Connected {
			out = append(out, s)
		}
	}
	return out
}
