package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghalamif/perftrace/internal/ports"
)

var (
	statsURL      string
	statsInterval time.Duration
	statsOnce     bool
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsURL, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	statsCmd.Flags().DurationVar(&statsInterval, "interval", 2*time.Second, "Refresh interval")
	statsCmd.Flags().BoolVar(&statsOnce, "once", false, "Print a single snapshot and exit")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Poll the Prometheus metrics endpoint and print live counters",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsTargets = []string{
	ports.MetricEventsConstructed,
	ports.MetricConstructFailures,
	ports.MetricEventsStored,
	ports.MetricEventsRejected,
	ports.MetricJournalSize,
}

func runStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if statsOnce {
		return printMetricsSnapshot(cmd.Context(), out, statsURL)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	fmt.Fprintf(out, "Streaming metrics from %s (Ctrl+C to stop)\n", statsURL)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, out, statsURL); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(ctx context.Context, out io.Writer, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statsTargets))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "[%s] constructed=%.0f failed=%.0f stored=%.0f rejected=%.0f journal_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		values[ports.MetricEventsConstructed],
		values[ports.MetricConstructFailures],
		values[ports.MetricEventsStored],
		values[ports.MetricEventsRejected],
		values[ports.MetricJournalSize],
	)
	return nil
}
