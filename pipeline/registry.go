package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vyrodovalexey/httpxml/config"
	"github.com/vyrodovalexey/httpxml/internal/observability"
)

// ErrUnknownMiddleware indicates a stage name nothing registered.
var ErrUnknownMiddleware = errors.New("unknown middleware")

// RequestFactory builds a request stage from configuration.
type RequestFactory func(cfg *config.Config, logger observability.Logger) (RequestStage, error)

// ResponseFactory builds a response stage from configuration.
type ResponseFactory func(cfg *config.Config, logger observability.Logger) (ResponseStage, error)

// Registry maps symbolic names to stage factories. Registration is
// explicit; nothing is registered on import.
type Registry struct {
	mu       sync.RWMutex
	request  map[string]RequestFactory
	response map[string]ResponseFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		request:  make(map[string]RequestFactory),
		response: make(map[string]ResponseFactory),
	}
}

// RegisterRequest registers a request stage factory, replacing any
// previous one of the same name.
func (r *Registry) RegisterRequest(name string, factory RequestFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.request[name] = factory
}

// RegisterResponse registers a response stage factory, replacing any
// previous one of the same name.
func (r *Registry) RegisterResponse(name string, factory ResponseFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.response[name] = factory
}

// RequestNames returns the registered request stage names, sorted.
func (r *Registry) RequestNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.request)
}

// ResponseNames returns the registered response stage names, sorted.
func (r *Registry) ResponseNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.response)
}

// Request builds the named request stage.
func (r *Registry) Request(name string, cfg *config.Config, logger observability.Logger) (RequestStage, error) {
	r.mu.RLock()
	factory, ok := r.request[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: request stage %q", ErrUnknownMiddleware, name)
	}
	return factory(cfg, logger)
}

// Response builds the named response stage.
func (r *Registry) Response(name string, cfg *config.Config, logger observability.Logger) (ResponseStage, error) {
	r.mu.RLock()
	factory, ok := r.response[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: response stage %q", ErrUnknownMiddleware, name)
	}
	return factory(cfg, logger)
}

// Connection builds a Connection from the stage names in cfg.Pipeline.
// Extra options are applied after the configured stages.
func (r *Registry) Connection(
	cfg *config.Config,
	logger observability.Logger,
	opts ...ConnectionOption,
) (*Connection, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	all := []ConnectionOption{WithConnectionLogger(logger)}

	for _, name := range cfg.Pipeline.Request {
		stage, err := r.Request(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		all = append(all, WithRequestStages(stage))
	}

	for _, name := range cfg.Pipeline.Response {
		stage, err := r.Response(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		all = append(all, WithResponseStages(stage))
	}

	return NewConnection(append(all, opts...)...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
