package catalogingester

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/catalogd/events"
	"github.com/c360studio/catalogd/graph"
)

// Config holds configuration for the catalog-ingester processor component.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream carrying catalog submissions.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:basic,default:CATALOGS"`

	// ConsumerName is the durable consumer name.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name,category:basic,default:catalog-ingester"`

	// DisableGraph turns off publishing accepted catalogs as graph entities.
	DisableGraph bool `json:"disable_graph" schema:"type:bool,description:Disable publishing accepted catalogs to the knowledge graph,category:advanced,default:false"`

	// Spool holds spool directory watching configuration.
	Spool SpoolConfig `json:"spool" schema:"type:object,description:Spool directory watching for file-based catalog submission,category:advanced"`
}

// SpoolConfig configures the spool directory watcher. Catalog files dropped
// into the spool are run through the same processing path as submissions
// arriving on the stream.
type SpoolConfig struct {
	// Enabled controls whether spool watching is active.
	Enabled bool `json:"enabled" schema:"type:bool,description:Enable spool directory watching,category:advanced,default:false"`

	// Dir is the spool directory to watch.
	Dir string `json:"dir" schema:"type:string,description:Spool directory to watch for catalog files,category:advanced,default:spool"`

	// Pattern is the glob matched against paths relative to Dir.
	Pattern string `json:"pattern" schema:"type:string,description:Glob pattern for catalog files relative to the spool directory,category:advanced,default:**/*.json"`

	// DebounceDelay is how long to wait for more changes before processing.
	DebounceDelay string `json:"debounce_delay" schema:"type:string,description:Debounce delay before submitting changed files,category:advanced,default:500ms"`
}

// DefaultSpoolConfig returns default spool configuration.
func DefaultSpoolConfig() SpoolConfig {
	return SpoolConfig{
		Enabled:       false,
		Dir:           "spool",
		Pattern:       "**/*.json",
		DebounceDelay: "500ms",
	}
}

// GetDebounceDelay returns the debounce delay as a duration.
func (c *SpoolConfig) GetDebounceDelay() time.Duration {
	if c.DebounceDelay == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(c.DebounceDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.Spool.Enabled {
		if c.Spool.Dir == "" {
			return fmt.Errorf("spool.dir is required when spool watching is enabled")
		}
		if c.Spool.Pattern == "" {
			return fmt.Errorf("spool.pattern is required when spool watching is enabled")
		}
		if !doublestar.ValidatePattern(c.Spool.Pattern) {
			return fmt.Errorf("spool.pattern %q is not a valid glob", c.Spool.Pattern)
		}
	}
	if c.Spool.DebounceDelay != "" {
		if _, err := time.ParseDuration(c.Spool.DebounceDelay); err != nil {
			return fmt.Errorf("invalid spool.debounce_delay format: %w", err)
		}
	}
	return nil
}

// DefaultConfig returns default configuration for the catalog-ingester
// processor.
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        "catalogs.in",
			Type:        "jetstream",
			Subject:     events.SubjectSubmit,
			StreamName:  "CATALOGS",
			Required:    true,
			Description: "Raw catalog submissions",
		},
	}

	outputDefs := []component.PortDefinition{
		{
			Name:        "processed.out",
			Type:        "jetstream",
			Subject:     events.SubjectProcessedWildcard,
			StreamName:  "CATALOGS",
			Required:    true,
			Description: "Accepted catalog events",
		},
		{
			Name:        "failed.out",
			Type:        "jetstream",
			Subject:     events.SubjectFailedWildcard,
			StreamName:  "CATALOGS",
			Required:    true,
			Description: "Rejected submission events",
		},
		{
			Name:        "graph.out",
			Type:        "jetstream",
			Subject:     graph.GraphIngestSubject,
			StreamName:  "GRAPH",
			Required:    false,
			Description: "Entity state updates for graph ingestion",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		StreamName:   "CATALOGS",
		ConsumerName: "catalog-ingester",
		Spool:        DefaultSpoolConfig(),
	}
}
