// Package stub provides in-process fakes for every driver capability, used
// by the orchestrator's own test suite (spec.md §8: "The real and stub
// implementations are interchangeable at the boundary; stubs are used in
// tests").
package stub

import (
	"fmt"
	"sync"

	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// Call records one invocation against a stub driver, keyed by resource
// identity so idempotence tests can assert that re-running a step doesn't
// create a second distinct resource.
type Call struct {
	Method string
	Args   []string
}

// Set is the fully stubbed drivers.Set plus a shared call log.
type Set struct {
	mu   sync.Mutex
	log  []Call
	Fail map[string]error // method name -> forced error, for retry/failure tests

	ContainerEngine     *ContainerEngine
	DNSProvider         *DnsProvider
	ReverseProxyManager *ReverseProxyManager
	ObjectStoreManager  *ObjectStoreManager
	InstanceNotifier    *InstanceNotifier
}

// New builds a fully-wired stub Set with empty state.
func New() *Set {
	s := &Set{Fail: map[string]error{}}
	s.ContainerEngine = &ContainerEngine{parent: s}
	s.DNSProvider = &DnsProvider{parent: s}
	s.ReverseProxyManager = &ReverseProxyManager{parent: s}
	s.ObjectStoreManager = &ObjectStoreManager{parent: s}
	s.InstanceNotifier = &InstanceNotifier{parent: s}
	return s
}

// AsDriverSet adapts this stub Set to drivers.Set for wiring into the
// executor.
func (s *Set) AsDriverSet() *drivers.Set {
	return &drivers.Set{
		ContainerEngine:     s.ContainerEngine,
		DNSProvider:         s.DNSProvider,
		ReverseProxyManager: s.ReverseProxyManager,
		ObjectStoreManager:  s.ObjectStoreManager,
		InstanceNotifier:    s.InstanceNotifier,
	}
}

// record appends a call to the log and returns any forced failure for
// method.
func (s *Set) record(method string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, Call{Method: method, Args: args})
	return s.Fail[method]
}

// Calls returns a copy of the call log.
func (s *Set) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.log))
	copy(out, s.log)
	return out
}

// CallCount returns how many times method was invoked.
func (s *Set) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.log {
		if c.Method == method {
			n++
		}
	}
	return n
}

type notFoundErr struct{ what string }

func (e *notFoundErr) Error() string { return fmt.Sprintf("%s not found", e.what) }

// IsNotFound reports whether err is this stub package's not-found sentinel.
func IsNotFound(err error) bool {
	_, ok := err.(*notFoundErr)
	return ok
}

func idFor(kind string, n int) string {
	return fmt.Sprintf("%s-%d", kind, n)
}
