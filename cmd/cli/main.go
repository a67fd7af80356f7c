package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/prommonitor/internal/reporter"
)

type options struct {
	api     string
	token   string
	apiKey  string
	retries int
	backoff time.Duration
	client  *http.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{client: &http.Client{Timeout: 10 * time.Second}}

	root := &cobra.Command{
		Use:          "prommonitor",
		Short:        "Report heartbeats and inspect cluster liveness",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.api, "api", envOr("API_BASE", "http://localhost:8080"), "heartbeat API base URL")

	send := &cobra.Command{
		Use:   "send <cluster_name>",
		Short: "Send one heartbeat for a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), opts, args[0])
		},
	}
	send.Flags().StringVar(&opts.token, "token", os.Getenv("VERIFY_TOKEN"), "shared verification token")
	send.Flags().IntVar(&opts.retries, "retries", 3, "attempts on 5xx or transport errors")
	send.Flags().DurationVar(&opts.backoff, "backoff", 2*time.Second, "wait between attempts")

	status := &cobra.Command{
		Use:   "status",
		Short: "List clusters with staleness and alert state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), opts)
		},
	}
	status.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("API_KEY"), "public or admin API key")

	root.AddCommand(send, status)
	return root
}

func runSend(ctx context.Context, out io.Writer, opts *options, cluster string) error {
	sender := &reporter.RetrySender{
		Inner:    &reporter.HTTPSender{BaseURL: strings.TrimRight(opts.api, "/"), Token: opts.token, Client: opts.client},
		Attempts: opts.retries,
		Backoff:  opts.backoff,
	}
	res := sender.Send(ctx, cluster)
	if !res.Success {
		return fmt.Errorf("heartbeat for %s failed: %s", cluster, res.Message)
	}
	fmt.Fprintf(out, "recorded %s at %d (%.0fms)\n", cluster, res.RecordedAt, res.LatencyMS)
	return nil
}

type clusterRow struct {
	ClusterName      string `json:"cluster_name"`
	LastSeen         int64  `json:"last_seen"`
	AlertActive      bool   `json:"alert_active"`
	StalenessSeconds int64  `json:"staleness_seconds"`
}

func runStatus(out io.Writer, opts *options) error {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(opts.api, "/")+"/api/clusters", nil)
	if err != nil {
		return err
	}
	if opts.apiKey != "" {
		req.Header.Set("X-API-Key", opts.apiKey)
	}
	resp, err := opts.client.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned %s", resp.Status)
	}

	var rows []clusterRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("decode clusters: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tLAST SEEN\tSTALENESS\tALERT")
	for _, r := range rows {
		seen := "never"
		if r.LastSeen > 0 {
			seen = time.Unix(r.LastSeen, 0).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%ds\t%v\n", r.ClusterName, seen, r.StalenessSeconds, r.AlertActive)
	}
	return tw.Flush()
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
