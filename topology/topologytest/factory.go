// Package topologytest provides TestServerFactory, the test double named
// directly by spec.md §8 ("each starts with a fresh TestServerFactory").
// It lets a test drive MultiServerCluster by injecting ServerDescriptions
// without any real heartbeat I/O.
package topologytest

import (
	"sync"

	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
	"github.com/coredb/sdam/topology"
)

// TestServerFactory implements topology.ServerFactory. Every Create call
// succeeds unless the address has been pre-configured to fail via
// FailNextCreate. Servers are retained after Destroy so a test can still
// inspect their final (demoted/closed) description.
type TestServerFactory struct {
	mu sync.Mutex

	byAddress map[address.Address]*topology.Server
	created   []address.Address
	destroyed []address.Address
	failing   map[address.Address]error
}

// NewTestServerFactory returns an empty factory.
func NewTestServerFactory() *TestServerFactory {
	return &TestServerFactory{
		byAddress: make(map[address.Address]*topology.Server),
		failing:   make(map[address.Address]error),
	}
}

// FailNextCreate arranges for the next Create call for addr to return err
// instead of constructing a Server.
func (f *TestServerFactory) FailNextCreate(addr address.Address, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[addr] = err
}

// Create implements topology.ServerFactory.
func (f *TestServerFactory) Create(addr address.Address, notify func(description.Server)) (*topology.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failing[addr]; ok {
		delete(f.failing, addr)
		return nil, err
	}

	s := topology.NewServer(addr, notify)
	f.byAddress[addr] = s
	f.created = append(f.created, addr)
	return s, nil
}

// Destroy implements topology.ServerFactory.
func (f *TestServerFactory) Destroy(s *topology.Server) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, s.Address())
}

// Notify pushes a notification to the Server at addr, as if a heartbeat had
// just arrived. It is a no-op if Create never succeeded for addr; a Server
// that was since destroyed is still found, but ignores the notification
// because it is closed.
func (f *TestServerFactory) Notify(addr address.Address, d description.Server) {
	f.mu.Lock()
	s, ok := f.byAddress[addr]
	f.mu.Unlock()
	if !ok {
		return
	}
	s.SendNotification(d)
}

// Server returns the Server handle created for addr, if any.
func (f *TestServerFactory) Server(addr address.Address) (*topology.Server, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byAddress[addr]
	return s, ok
}

// CreatedAddresses returns every address Create succeeded for, in call
// order (including addresses later destroyed).
func (f *TestServerFactory) CreatedAddresses() []address.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]address.Address, len(f.created))
	copy(out, f.created)
	return out
}

// DestroyedAddresses returns every address Destroy was called for, in call
// order.
func (f *TestServerFactory) DestroyedAddresses() []address.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]address.Address, len(f.destroyed))
	copy(out, f.destroyed)
	return out
}
