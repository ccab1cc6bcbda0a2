package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/c360studio/catalogd/catalog"
	"github.com/c360studio/catalogd/events"
	"github.com/c360studio/catalogd/export"
)

// parseCmd runs the normalization pipeline offline over a payload file.
// No NATS connection is needed; the command exists so submissions can be
// validated before they are sent anywhere.
func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Normalize a submission payload offline",
		Long: `Parse runs the full normalization pipeline over a payload file and
prints a summary of the canonical catalog, or the catalog itself with --json.

The exit code is non-zero when the payload is rejected, and the error kind
(malformed-payload, dangling-reference, ...) is reported alongside the error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			cat, err := catalog.Parse(data)
			if err != nil {
				if kind := catalog.ErrorKind(err); kind != "" {
					return fmt.Errorf("payload rejected (%s): %w", kind, err)
				}
				return err
			}

			if asJSON {
				out, err := export.Export(cat, export.FormatJSON)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}

			fmt.Printf("certname:       %s\n", cat.Certname)
			fmt.Printf("version:        %s\n", cat.Version)
			fmt.Printf("api version:    %s\n", cat.APIVersion)
			fmt.Printf("format version: %d\n", cat.FormatVersion)
			fmt.Printf("resources:      %d\n", len(cat.Resources))
			fmt.Printf("edges:          %d\n", cat.Edges.Len())
			fmt.Printf("aliases:        %d\n", len(cat.Aliases))
			fmt.Printf("classes:        %d\n", cat.Classes.Len())
			fmt.Printf("tags:           %d\n", cat.Tags.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the canonical catalog as JSON")
	return cmd
}

// submitCmd publishes raw payload files to the submission subject. The
// payload is sent as-is; normalization happens in the ingester, and the
// outcome lands on the per-node processed/failed subjects.
func submitCmd() *cobra.Command {
	var (
		natsURL string
		wait    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <file>...",
		Short: "Submit payload files to a running catalogd",
		Long: `Submit publishes one or more payload files to the catalog submission
subject. With --wait, the command subscribes to the node's outcome subjects
and reports whether each submission was accepted or rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if envURL := os.Getenv("CATALOGD_NATS_URL"); envURL != "" {
				natsURL = envURL
			}
			if envURL := os.Getenv("NATS_URL"); envURL != "" {
				natsURL = envURL
			}

			nc, err := nats.Connect(natsURL, nats.Name(appName+"-submit"))
			if err != nil {
				return wrapNATSError(err, natsURL)
			}
			defer nc.Close()

			for _, path := range args {
				if err := submitOne(nc, path, wait, timeout); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", nats.DefaultURL, "NATS server URL")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the processing outcome of each submission")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for an outcome with --wait")
	return cmd
}

func submitOne(nc *nats.Conn, path string, wait bool, timeout time.Duration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	if !wait {
		if err := nc.Publish(events.SubjectSubmit, data); err != nil {
			return fmt.Errorf("publish %s: %w", path, err)
		}
		if err := nc.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		fmt.Printf("submitted %s\n", path)
		return nil
	}

	// Subscribe before publishing so the outcome cannot race past us.
	// Outcomes are matched by certname, extracted best effort from the
	// payload; a payload too broken to yield one fails on the "unknown"
	// token.
	certname := catalog.ExtractCertname(data)
	processed, err := nc.SubscribeSync(events.SubjectProcessed(certname))
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer func() { _ = processed.Unsubscribe() }()
	failed, err := nc.SubscribeSync(events.SubjectFailed(certname))
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer func() { _ = failed.Unsubscribe() }()

	if err := nc.Publish(events.SubjectSubmit, data); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	fmt.Printf("submitted %s, waiting for outcome...\n", path)

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("no outcome for %s within %s", path, timeout)
		}

		if msg, err := processed.NextMsg(100 * time.Millisecond); err == nil {
			event, err := events.ParseEventPayload[events.ProcessedPayload](msg.Data)
			if err != nil {
				return fmt.Errorf("decode processed event: %w", err)
			}
			fmt.Printf("accepted %s: version %s, %d resources, %d edges (submission %s)\n",
				event.Certname, event.Version, event.ResourceCount, event.EdgeCount, event.SubmissionID)
			return nil
		}

		if msg, err := failed.NextMsg(100 * time.Millisecond); err == nil {
			event, err := events.ParseEventPayload[events.FailedPayload](msg.Data)
			if err != nil {
				return fmt.Errorf("decode failed event: %w", err)
			}
			return fmt.Errorf("rejected (%s): %s", event.ErrorKind, event.Error)
		}
	}
}

// exportCmd renders a payload file's canonical catalog in an interchange
// format. Like parse, it runs the pipeline offline.
func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a payload's canonical catalog in an interchange format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := export.GetFormatInfo(export.Format(format))
			if !ok {
				return fmt.Errorf("unsupported format %q (available: json, dot, ntriples)", format)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			cat, err := catalog.Parse(data)
			if err != nil {
				if kind := catalog.ErrorKind(err); kind != "" {
					return fmt.Errorf("payload rejected (%s): %w", kind, err)
				}
				return err
			}

			rendered, err := export.Export(cat, info.Name)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Print(rendered)
				return nil
			}
			if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("wrote %s (%s) to %s\n", info.Description, info.MIMEType, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, dot, ntriples)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
