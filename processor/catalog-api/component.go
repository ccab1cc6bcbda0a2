// Package catalogapi provides HTTP endpoints for reading stored catalogs,
// receipts, and submitting new catalogs over HTTP.
package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/catalogd/storage"
)

// CatalogStore is the storage surface the HTTP handlers read from.
// *storage.Store implements it; tests substitute a fake.
type CatalogStore interface {
	GetCatalog(ctx context.Context, certname string) (*storage.StoredCatalog, error)
	ListCertnames(ctx context.Context) ([]string, error)
	GetReceipt(ctx context.Context, id string) (*storage.Receipt, error)
	ListReceipts(ctx context.Context) ([]*storage.Receipt, error)
}

// SubmitPublisher publishes raw submissions to the catalog stream.
// *natsclient.Client implements it.
type SubmitPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Component implements the catalog-api component.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	// Lifecycle state machine
	// States: 0=stopped, 1=starting, 2=running, 3=stopping
	state     atomic.Int32
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Request-time dependencies, set during Start
	store     CatalogStore
	publisher SubmitPublisher
}

const (
	stateStopped  = 0
	stateStarting = 1
	stateRunning  = 2
	stateStopping = 3
)

// NewComponent constructs a catalog-api Component from raw JSON config and deps.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Component{
		name:       "catalog-api",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
	}, nil
}

// Initialize prepares the component for startup.
func (c *Component) Initialize() error {
	return nil
}

// Start connects the component to storage. HTTP handlers registered before
// Start answer 503 until the store is ready.
func (c *Component) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateStopped, stateStarting) {
		current := c.state.Load()
		if current == stateRunning || current == stateStarting {
			return fmt.Errorf("component already running or starting")
		}
		return fmt.Errorf("component in invalid state: %d", current)
	}

	defer func() {
		if c.state.Load() == stateStarting {
			c.state.Store(stateStopped)
		}
	}()

	if c.natsClient == nil {
		return fmt.Errorf("NATS client required")
	}

	js, err := c.natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("get JetStream context: %w", err)
	}

	store, err := storage.NewStore(ctx, js)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	_, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.store = store
	c.publisher = c.natsClient
	c.cancel = cancel
	c.startTime = time.Now()
	c.mu.Unlock()

	c.state.Store(stateRunning)
	c.logger.Info("catalog-api started")
	return nil
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	if !c.state.CompareAndSwap(stateRunning, stateStopping) {
		current := c.state.Load()
		if current == stateStopped || current == stateStopping {
			return nil
		}
		return fmt.Errorf("component in unexpected state: %d", current)
	}

	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.state.Store(stateStopped)
	c.logger.Info("catalog-api stopped")
	return nil
}

// getStore returns the store, or nil before Start completes.
func (c *Component) getStore() CatalogStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// getPublisher returns the submit publisher, or nil before Start completes.
func (c *Component) getPublisher() SubmitPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publisher
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "catalog-api",
		Type:        "processor",
		Description: "HTTP read API for stored catalogs and receipts",
		Version:     "0.1.0",
	}
}

// InputPorts returns an empty port list — inputs arrive over HTTP.
func (c *Component) InputPorts() []component.Port {
	return []component.Port{}
}

// OutputPorts returns an empty port list — submissions are republished via
// the shared NATS client rather than a dedicated port.
func (c *Component) OutputPorts() []component.Port {
	return []component.Port{}
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return catalogAPISchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	state := c.state.Load()
	running := state == stateRunning

	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	switch state {
	case stateStarting:
		status = "starting"
	case stateRunning:
		status = "running"
	case stateStopping:
		status = "stopping"
	}

	return component.HealthStatus{
		Healthy:   running,
		LastCheck: time.Now(),
		Uptime:    time.Since(startTime),
		Status:    status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{}
}
