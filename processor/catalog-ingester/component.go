// Package catalogingester provides the processor that turns raw catalog
// submissions into canonical catalogs, receipts, and outcome events.
package catalogingester

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/catalogd/events"
	"github.com/c360studio/catalogd/graph"
	"github.com/c360studio/catalogd/storage"
)

// catalogIngesterSchema defines the configuration schema.
var catalogIngesterSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Component implements the catalog-ingester processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	platform   component.PlatformMeta
	handler    *Handler
	store      *storage.Store
	watcher    *SpoolWatcher

	// Lifecycle management
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	catalogsAccepted atomic.Int64
	catalogsRejected atomic.Int64
	errors           atomic.Int64
	lastActivityMu   sync.RWMutex
	lastActivity     time.Time
}

// NewComponent creates a new catalog-ingester processor component.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Use default config if ports not set
	if config.Ports == nil {
		config = DefaultConfig()
		// Re-unmarshal to get user-provided values
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Component{
		name:       "catalog-ingester",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		platform:   deps.Platform,
		handler:    NewHandler(),
	}

	return c, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	return nil
}

// Start begins processing catalog submissions.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	// Mark as starting immediately to prevent concurrent starts
	c.running = true
	c.startTime = time.Now()
	c.mu.Unlock()

	js, err := c.natsClient.JetStream()
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("get JetStream context: %w", err)
	}

	store, err := storage.NewStore(ctx, js)
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("create store: %w", err)
	}
	c.store = store

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Start consumer in background
	go c.consumeMessages(runCtx)

	// Start spool watcher if enabled
	if c.config.Spool.Enabled {
		watcher, err := NewSpoolWatcher(c.config.Spool, c.logger)
		if err != nil {
			c.logger.Error("Failed to create spool watcher", "error", err)
		} else {
			c.watcher = watcher
			if err := watcher.Start(runCtx); err != nil {
				c.logger.Error("Failed to start spool watcher", "error", err)
			} else {
				// Process spool events in background
				go c.processSpoolEvents(runCtx)
			}
		}
	}

	c.logger.Info("Catalog ingester started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"spool", c.config.Spool.Enabled,
		"graph", !c.config.DisableGraph)

	return nil
}

// consumeMessages processes incoming catalog submissions.
func (c *Component) consumeMessages(ctx context.Context) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Error("Failed to get JetStream context", "error", err)
		return
	}

	// Get stream
	stream, err := js.Stream(ctx, c.config.StreamName)
	if err != nil {
		c.logger.Error("Failed to get stream", "error", err, "stream", c.config.StreamName)
		return
	}

	// Create or update durable consumer
	consumerConfig := jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: events.SubjectSubmit,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       60 * time.Second,
		MaxDeliver:    3,
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		c.logger.Error("Failed to create consumer", "error", err, "stream", c.config.StreamName, "consumer", c.config.ConsumerName)
		return
	}

	c.logger.Info("Consumer connected", "stream", c.config.StreamName, "consumer", c.config.ConsumerName)

	// Consume messages
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Fetch next message with timeout
		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // Timeout, try again
		}

		for msg := range msgs.Messages() {
			select {
			case <-ctx.Done():
				// NAK the message so it can be redelivered
				_ = msg.Nak()
				return
			default:
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage processes a single catalog submission from the stream.
// Payload failures are recorded and ACKed; infrastructure failures NAK the
// message for redelivery.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.updateLastActivity()

	res, err := c.ingest(ctx, msg.Data())
	if err != nil {
		c.logger.Error("Failed to record submission", "error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	if res.Accepted() {
		c.catalogsAccepted.Add(1)
		c.logger.Info("Catalog accepted",
			"submission_id", res.SubmissionID,
			"certname", res.Processed.Certname,
			"resources", res.Processed.ResourceCount,
			"edges", res.Processed.EdgeCount)
	} else {
		c.catalogsRejected.Add(1)
		c.logger.Warn("Catalog rejected",
			"submission_id", res.SubmissionID,
			"certname", res.Failed.Certname,
			"kind", res.Failed.ErrorKind,
			"error", res.Err)
	}

	_ = msg.Ack()
}

// ingest runs one raw submission through parse, store, and publish. The
// returned error is infrastructural and warrants redelivery; a result with
// Accepted() == false and a nil error is a terminal payload failure that has
// already been recorded.
func (c *Component) ingest(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	res := c.handler.Process(storage.NewSubmissionID(), data, time.Now().UTC())

	if !res.Accepted() {
		if err := c.store.PutReceipt(ctx, res.Receipt); err != nil {
			return nil, fmt.Errorf("store receipt: %w", err)
		}
		if err := c.publishEvent(ctx, events.SubjectFailed(res.Failed.Certname), events.FailedType, res.Failed); err != nil {
			return nil, fmt.Errorf("publish failed event: %w", err)
		}
		catalogsProcessedTotal.WithLabelValues("failed").Inc()
		processingFailuresTotal.WithLabelValues(res.Failed.ErrorKind).Inc()
		pipelineDuration.Observe(time.Since(start).Seconds())
		return res, nil
	}

	if err := c.store.PutCatalog(ctx, res.Stored); err != nil {
		return nil, fmt.Errorf("store catalog: %w", err)
	}
	if err := c.store.PutReceipt(ctx, res.Receipt); err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}
	if err := c.publishEvent(ctx, events.SubjectProcessed(res.Processed.Certname), events.ProcessedType, res.Processed); err != nil {
		return nil, fmt.Errorf("publish processed event: %w", err)
	}

	// Graph export is a projection of already-persisted state; failures are
	// logged but don't fail the submission.
	if !c.config.DisableGraph {
		if err := graph.PublishCatalog(ctx, c.natsClient, res.Stored.Catalog, res.Stored.ReceivedAt); err != nil {
			c.logger.Warn("Failed to publish graph entities",
				"certname", res.Processed.Certname,
				"error", err)
			c.errors.Add(1)
		}
	}

	catalogsProcessedTotal.WithLabelValues("accepted").Inc()
	catalogResources.Observe(float64(res.Processed.ResourceCount))
	pipelineDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// publishEvent wraps an event payload and publishes it to the catalog stream.
func (c *Component) publishEvent(ctx context.Context, subject string, msgType message.Type, payload message.Payload) error {
	msg := message.NewBaseMessage(msgType, payload, "catalogd")
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event message: %w", err)
	}
	return c.natsClient.PublishToStream(ctx, subject, data)
}

// processSpoolEvents handles spool watcher events.
func (c *Component) processSpoolEvents(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			c.handleSpoolEvent(ctx, event)
		}
	}
}

// handleSpoolEvent submits a spooled catalog file through the same
// processing path as stream submissions. There is no message to NAK, so
// infrastructure failures are only logged; the file stays in the spool and
// is retried on the next content change.
func (c *Component) handleSpoolEvent(ctx context.Context, event SpoolEvent) {
	c.updateLastActivity()

	data, err := os.ReadFile(event.AbsPath)
	if err != nil {
		c.logger.Warn("Failed to read spool file", "path", event.Path, "error", err)
		c.errors.Add(1)
		return
	}

	res, err := c.ingest(ctx, data)
	if err != nil {
		c.logger.Error("Failed to record spooled submission", "path", event.Path, "error", err)
		c.errors.Add(1)
		return
	}

	if res.Accepted() {
		c.catalogsAccepted.Add(1)
		c.logger.Info("Spooled catalog accepted",
			"path", event.Path,
			"submission_id", res.SubmissionID,
			"certname", res.Processed.Certname)
	} else {
		c.catalogsRejected.Add(1)
		c.logger.Warn("Spooled catalog rejected",
			"path", event.Path,
			"submission_id", res.SubmissionID,
			"kind", res.Failed.ErrorKind,
			"error", res.Err)
	}
}

// updateLastActivity safely updates the last activity timestamp.
func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

// getLastActivity safely retrieves the last activity timestamp.
func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}

// Stop gracefully stops the component within the given timeout.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	// Stop watcher if running
	if c.watcher != nil {
		if err := c.watcher.Stop(); err != nil {
			c.logger.Error("Failed to stop spool watcher", "error", err)
		}
	}

	c.running = false
	c.logger.Info("Catalog ingester stopped",
		"accepted", c.catalogsAccepted.Load(),
		"rejected", c.catalogsRejected.Load(),
		"errors", c.errors.Load())

	return nil
}

// Discoverable interface implementation

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "catalog-ingester",
		Type:        "processor",
		Description: "Catalog submission parser, store, and event publisher",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = buildPort(portDef, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return catalogIngesterSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.errors.Load()),
		Uptime:     time.Since(startTime),
		Status:     c.getStatusString(running),
	}
}

// getStatusString returns a status string based on running state.
func (c *Component) getStatusString(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}
