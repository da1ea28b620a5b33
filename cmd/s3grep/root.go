package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/s3tools/s3grep"
	"github.com/s3tools/s3grep/progress"
	"github.com/s3tools/s3grep/scantypes"
)

// errNoMatches signals a clean scan that found nothing. By grep
// convention that is exit code 1, distinct from failures (2).
var errNoMatches = errors.New("no matches found")

// Execute runs the CLI and returns the process exit code: 0 when matches
// were found, 1 when the scan completed without matches, 2 on failure.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errNoMatches) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "s3grep: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "s3grep",
		Short: "grep for S3 buckets",
		Long: `s3grep searches every object in an S3 bucket (or under a prefix)
for a pattern, like grep over files. Objects with a .gz, .zst, or .zstd
suffix are decompressed on the fly; binary objects are skipped.

Matches print as s3://bucket/key:text, one line per match.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.StringP("bucket", "b", "", "bucket to search (required)")
	flags.StringP("pattern", "p", "", "pattern to search for (required)")
	flags.StringP("prefix", "z", "", "limit the search to keys under this prefix")
	flags.IntP("concurrent-tasks", "c", scantypes.DefaultConcurrency, "number of objects scanned concurrently")
	flags.BoolP("case-sensitive", "i", false, "match case exactly instead of ignoring it")
	flags.BoolP("line-number", "n", false, "print 1-indexed line numbers with matches")
	flags.BoolP("quiet", "q", false, "suppress the progress spinner and summary")
	flags.Bool("verbose", false, "enable debug logging")
	flags.String("region", "", "AWS region of the bucket")
	flags.String("endpoint", "", "custom S3 endpoint URL")
	flags.Bool("path-style", false, "use path-style addressing (for S3-compatible services)")

	cobra.CheckErr(v.BindPFlags(flags))
	v.SetEnvPrefix("S3GREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	bucket := v.GetString("bucket")
	pattern := v.GetString("pattern")
	if bucket == "" {
		return errors.New("--bucket is required")
	}
	if pattern == "" {
		return errors.New("--pattern is required")
	}
	quiet := v.GetBool("quiet")
	lineNumbers := v.GetBool("line-number")
	caseSensitive := v.GetBool("case-sensitive")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := zerolog.WarnLevel
	if v.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	opts := []scantypes.Option{s3grep.WithLogger(log)}
	if region := v.GetString("region"); region != "" {
		opts = append(opts, s3grep.WithRegion(region))
	}
	if endpoint := v.GetString("endpoint"); endpoint != "" {
		opts = append(opts, s3grep.WithEndpoint(endpoint))
	}
	if v.GetBool("path-style") {
		opts = append(opts, s3grep.WithForcePathStyle(true))
	}

	client, err := s3grep.New(opts...)
	if err != nil {
		return err
	}

	agg := progress.New()
	printer := newMatchPrinter(bucket, pattern, caseSensitive, lineNumbers)

	var spinnerDone chan struct{}
	if !quiet {
		spinnerDone = make(chan struct{})
		go spin(agg, printer, spinnerDone)
	}

	outcome, err := client.Scan(ctx, &scantypes.ScanRequest{
		Bucket:        bucket,
		Prefix:        v.GetString("prefix"),
		Pattern:       pattern,
		CaseSensitive: caseSensitive,
		Concurrency:   v.GetInt("concurrent-tasks"),
		LineNumbers:   lineNumbers,
	}, s3grep.WithAggregator(agg), s3grep.WithMatchFunc(printer.print))

	if spinnerDone != nil {
		close(spinnerDone)
		printer.detach()
	}
	if err != nil {
		return err
	}

	for _, oe := range outcome.Errors {
		fmt.Fprintf(os.Stderr, "s3grep: %s: %v\n", oe.Key, oe.Err)
	}
	if !quiet {
		fmt.Fprintf(os.Stderr,
			"s3grep: scanned %d objects (%d bytes) in %s: %d matches, %d errors, %d binary skipped\n",
			outcome.ObjectsScanned, outcome.BytesScanned,
			outcome.Duration.Round(time.Millisecond),
			outcome.MatchesFound, len(outcome.Errors), outcome.BinarySkipped)
	}

	if outcome.MatchesFound == 0 {
		return errNoMatches
	}
	return nil
}

// spin renders a progress spinner on stderr until done closes, refreshing
// its description from the aggregator's counters.
func spin(agg *progress.Aggregator, printer *matchPrinter, done <-chan struct{}) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	printer.attach(bar)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = bar.Clear()
			return
		case <-ticker.C:
			snap := agg.Snapshot()
			bar.Describe(fmt.Sprintf("scanning: %d objects, %d bytes, %d matches",
				snap.ObjectsScanned, snap.BytesScanned, snap.MatchesFound))
			_ = bar.Add(1)
		}
	}
}

var matchHighlight = color.New(color.FgBlack, color.BgYellow)

// matchPrinter writes match lines to stdout as workers produce them,
// keeping concurrent prints whole and stepping around the spinner.
type matchPrinter struct {
	bucket        string
	pattern       string
	folded        string
	caseSensitive bool
	lineNumbers   bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newMatchPrinter(bucket, pattern string, caseSensitive, lineNumbers bool) *matchPrinter {
	return &matchPrinter{
		bucket:        bucket,
		pattern:       pattern,
		folded:        strings.ToLower(pattern),
		caseSensitive: caseSensitive,
		lineNumbers:   lineNumbers,
	}
}

func (p *matchPrinter) attach(bar *progressbar.ProgressBar) {
	p.mu.Lock()
	p.bar = bar
	p.mu.Unlock()
}

func (p *matchPrinter) detach() {
	p.mu.Lock()
	p.bar = nil
	p.mu.Unlock()
}

func (p *matchPrinter) print(rec scantypes.MatchRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Clear()
	}
	if p.lineNumbers {
		fmt.Printf("s3://%s/%s:%d:%s\n", p.bucket, rec.Key, rec.LineNum, p.highlight(rec.Line))
	} else {
		fmt.Printf("s3://%s/%s:%s\n", p.bucket, rec.Key, p.highlight(rec.Line))
	}
}

// highlight colors the first occurrence of the pattern in line. Color is
// stripped automatically when stdout is not a terminal.
func (p *matchPrinter) highlight(line string) string {
	var idx int
	if p.caseSensitive {
		idx = strings.Index(line, p.pattern)
	} else {
		idx = strings.Index(strings.ToLower(line), p.folded)
	}
	if idx < 0 {
		return line
	}
	end := idx + len(p.pattern)
	return line[:idx] + matchHighlight.Sprint(line[idx:end]) + line[end:]
}
