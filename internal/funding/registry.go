package funding

import (
	"log/slog"
	"sync"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/state"
	"github.com/fieldline/paydesk/internal/timer"
)

// Registry tracks live funding flows by ID. One operator can run several
// flows at once; each carries its own watcher.
type Registry struct {
	mu    sync.Mutex
	flows map[string]*Flow

	client  *backend.Client
	mgr     *state.Manager
	timers  *timer.Store
	network string
}

// NewRegistry creates an empty registry wired to the shared backend
// client, state manager, and timer store.
func NewRegistry(client *backend.Client, mgr *state.Manager, timers *timer.Store, network string) *Registry {
	return &Registry{
		flows:   make(map[string]*Flow),
		client:  client,
		mgr:     mgr,
		timers:  timers,
		network: network,
	}
}

// Create starts a new flow at the amount step. Requires a logged-in user.
func (r *Registry) Create() (*Flow, error) {
	if !r.mgr.IsAuthenticated() {
		return nil, config.ErrUnauthenticated
	}

	f := newFlow(r.client, r.mgr, r.timers, r.network)

	r.mu.Lock()
	r.flows[f.ID] = f
	r.mu.Unlock()

	slog.Info("funding flow created", "flowId", f.ID)
	return f, nil
}

// Get returns a flow by ID.
func (r *Registry) Get(id string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	return f, ok
}

// Remove drops a flow from the registry, closing it first if still live.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	f, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()

	if ok && !f.Step().Terminal() {
		if err := f.Close(); err != nil {
			slog.Warn("closing removed flow", "flowId", id, "error", err)
		}
	}
}

// CloseAll shuts down every live flow. Called on logout and on daemon
// shutdown so no watcher outlives its session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	flows := make([]*Flow, 0, len(r.flows))
	for _, f := range r.flows {
		flows = append(flows, f)
	}
	r.flows = make(map[string]*Flow)
	r.mu.Unlock()

	for _, f := range flows {
		if !f.Step().Terminal() {
			if err := f.Close(); err != nil {
				slog.Warn("closing flow during shutdown", "flowId", f.ID, "error", err)
			}
		}
	}
}

// List returns a status snapshot of every tracked flow.
func (r *Registry) List() []Status {
	r.mu.Lock()
	flows := make([]*Flow, 0, len(r.flows))
	for _, f := range r.flows {
		flows = append(flows, f)
	}
	r.mu.Unlock()

	statuses := make([]Status, 0, len(flows))
	for _, f := range flows {
		statuses = append(statuses, f.Status())
	}
	return statuses
}
