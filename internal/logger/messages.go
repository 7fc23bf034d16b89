package logger

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

// TopologyOpeningMessage is logged once, when a cluster is constructed.
type TopologyOpeningMessage struct {
	Seeds []string
}

func (TopologyOpeningMessage) Component() Component { return ComponentTopology }
func (TopologyOpeningMessage) Message() string       { return "Starting topology monitoring" }
func (m TopologyOpeningMessage) KeysAndValues() []interface{} {
	return []interface{}{"seeds", m.Seeds}
}

// TopologyClosedMessage is logged once, when a cluster is closed.
type TopologyClosedMessage struct{}

func (TopologyClosedMessage) Component() Component         { return ComponentTopology }
func (TopologyClosedMessage) Message() string               { return "Stopped topology monitoring" }
func (TopologyClosedMessage) KeysAndValues() []interface{} { return nil }

// TopologyDescriptionChangedMessage is logged on every published
// ClusterDescription change. Diff is computed with go-cmp; the dump of the
// full new description uses go-spew, truncated to the logger's configured
// width.
type TopologyDescriptionChangedMessage struct {
	Diff    string
	NewDump string
	Width   uint
}

func NewTopologyDescriptionChangedMessage(previous, next interface{}, width uint) TopologyDescriptionChangedMessage {
	return TopologyDescriptionChangedMessage{
		Diff:    cmp.Diff(previous, next),
		NewDump: truncate(spew.Sdump(next), width),
		Width:   width,
	}
}

func (TopologyDescriptionChangedMessage) Component() Component { return ComponentTopology }
func (TopologyDescriptionChangedMessage) Message() string {
	return "Topology description changed"
}
func (m TopologyDescriptionChangedMessage) KeysAndValues() []interface{} {
	return []interface{}{"diff", m.Diff, "new", m.NewDump}
}

// ServerOpeningMessage is logged when a Server handle is created for a
// newly discovered peer.
type ServerOpeningMessage struct {
	Address string
}

func (ServerOpeningMessage) Component() Component { return ComponentTopology }
func (ServerOpeningMessage) Message() string       { return "Starting server monitoring" }
func (m ServerOpeningMessage) KeysAndValues() []interface{} {
	return []interface{}{"address", m.Address}
}

// ServerClosedMessage is logged when a Server handle is torn down.
type ServerClosedMessage struct {
	Address string
}

func (ServerClosedMessage) Component() Component { return ComponentTopology }
func (ServerClosedMessage) Message() string       { return "Stopped server monitoring" }
func (m ServerClosedMessage) KeysAndValues() []interface{} {
	return []interface{}{"address", m.Address}
}

// ServerDescriptionChangedMessage is logged for every per-member
// description replacement, including synthetic demotions.
type ServerDescriptionChangedMessage struct {
	Address  string
	Previous string
	New      string
}

func (ServerDescriptionChangedMessage) Component() Component { return ComponentTopology }
func (ServerDescriptionChangedMessage) Message() string {
	return "Server description changed"
}
func (m ServerDescriptionChangedMessage) KeysAndValues() []interface{} {
	return []interface{}{"address", m.Address, "previousDescription", m.Previous, "newDescription", m.New}
}

// FactoryErrorMessage is logged when a ServerFactory fails to create a
// Server for a newly discovered peer.
type FactoryErrorMessage struct {
	Address string
	Err     error
}

func (FactoryErrorMessage) Component() Component { return ComponentTopology }
func (FactoryErrorMessage) Message() string       { return "Server factory failed" }
func (m FactoryErrorMessage) KeysAndValues() []interface{} {
	return []interface{}{"address", m.Address, "error", m.Err}
}

// ListenerPanicMessage is logged when a ChangeListener panics; the panic is
// swallowed so the cluster's own state stays uncorrupted (spec.md §5).
type ListenerPanicMessage struct {
	Recovered interface{}
}

func (ListenerPanicMessage) Component() Component { return ComponentTopology }
func (ListenerPanicMessage) Message() string       { return "Change listener panicked" }
func (m ListenerPanicMessage) KeysAndValues() []interface{} {
	return []interface{}{"recovered", m.Recovered}
}

// ServerSelectionTimeoutMessage is logged when SelectServer gives up
// after its deadline.
type ServerSelectionTimeoutMessage struct {
	Timeout string
}

func (ServerSelectionTimeoutMessage) Component() Component { return ComponentServerSelection }
func (ServerSelectionTimeoutMessage) Message() string       { return "Server selection timed out" }
func (m ServerSelectionTimeoutMessage) KeysAndValues() []interface{} {
	return []interface{}{"timeout", m.Timeout}
}
