package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
)

var logsOpts struct {
	follow bool
	lines  int
	since  string
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the server log file",
	Long: `Print the tail of the log file named by logging.output.

Servers logging to stdout or stderr have no file to read.

Examples:
  dittodrive logs -n 50
  dittodrive logs -f
  dittodrive logs --since 2024-01-15T10:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	f := logsCmd.Flags()
	f.BoolVarP(&logsOpts.follow, "follow", "f", false, "Keep printing lines as they are written")
	f.IntVarP(&logsOpts.lines, "lines", "n", 100, "Number of trailing lines to print")
	f.StringVar(&logsOpts.since, "since", "", "Skip lines older than this RFC3339 time")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.Logging.Output
	switch path {
	case "stdout", "stderr":
		return fmt.Errorf("the server logs to %s; set logging.output to a file path to use this command", path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("log file %s does not exist yet; has the server started?", path)
	}

	var since time.Time
	if logsOpts.since != "" {
		if since, err = time.Parse(time.RFC3339, logsOpts.since); err != nil {
			return fmt.Errorf("invalid --since value, want RFC3339: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if err := showLogs(out, path, logsOpts.lines, since); err != nil || !logsOpts.follow {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s, press Ctrl+C to stop\n", path)
	return followLogs(ctx, out, path)
}

// showLogs prints the last n lines of path. Lines with a timestamp before
// since are skipped; lines without one are kept.
func showLogs(w io.Writer, path string, n int, since time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if n <= 0 {
		return nil
	}

	ring := make([]string, n)
	kept := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if ts := extractTimestamp(line); !since.IsZero() && !ts.IsZero() && ts.Before(since) {
			continue
		}
		ring[kept%n] = line
		kept++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	start := max(0, kept-n)
	for i := start; i < kept; i++ {
		if _, err := fmt.Fprintln(w, ring[i%n]); err != nil {
			return err
		}
	}
	return nil
}

// followLogs copies whatever is appended to path to w until ctx ends. A
// truncated file is read again from the start.
func followLogs(ctx context.Context, w io.Writer, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) {
				continue
			}
			if info, err := f.Stat(); err == nil && info.Size() < offset {
				offset, _ = f.Seek(0, io.SeekStart)
			}
			n, err := io.Copy(w, f)
			offset += n
			if err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher failed: %w", err)
		}
	}
}

// extractTimestamp reads the time of a text ("[2006-01-02 15:04:05] ...")
// or JSON ("time" field) log line. It returns the zero time otherwise.
func extractTimestamp(line string) time.Time {
	if strings.HasPrefix(line, "{") {
		var rec struct {
			Time time.Time `json:"time"`
		}
		if json.Unmarshal([]byte(line), &rec) == nil {
			return rec.Time
		}
		return time.Time{}
	}

	width := len(logger.TextTimeLayout)
	if len(line) <= width+1 || line[0] != '[' {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(logger.TextTimeLayout, line[1:width+1], time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
