// Package cli 翻译网关的命令行客户端
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/z-wentao/subhashit/pkg/gateway"
	"github.com/z-wentao/subhashit/pkg/models"
)

// 退出码
const (
	ExitSuccess        = 0
	ExitRuntimeFailure = 1
	ExitInvalidUsage   = 2
)

// IOStreams 命令的输入输出
type IOStreams struct {
	Out    io.Writer
	ErrOut io.Writer
}

// ExitError 带退出码的错误
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return coded.Code
	}
	msg := err.Error()
	if strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") {
		return ExitInvalidUsage
	}
	return ExitRuntimeFailure
}

type options struct {
	url     string
	text    string
	audio   string
	targets []string
	timeout time.Duration
	json    bool
}

// Execute 运行命令，返回进程退出码
func Execute(args []string, streams IOStreams) int {
	root := newRootCommand(streams)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func newRootCommand(streams IOStreams) *cobra.Command {
	opts := &options{}

	defaultURL := os.Getenv("SUBHASHIT_BACKEND")
	if defaultURL == "" {
		defaultURL = "http://localhost:8050"
	}

	root := &cobra.Command{
		Use:   "translate",
		Short: "Send text to a translation backend and print the result table",
		Long:  "translate posts text to {url}/text-to-speech and prints one row per target language.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, streams)
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	root.Flags().StringVar(&opts.url, "url", defaultURL, "Backend base URL")
	root.Flags().StringVarP(&opts.text, "text", "t", "", "Text to translate")
	root.Flags().StringVar(&opts.audio, "audio", "", "Audio file to translate instead of text")
	root.Flags().StringSliceVar(&opts.targets, "targets", []string{"df"}, "Comma-separated target language codes")
	root.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	root.Flags().BoolVar(&opts.json, "json", false, "Print records as JSON")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(ExitInvalidUsage, err)
	})
	return root
}

func run(ctx context.Context, opts *options, streams IOStreams) error {
	if strings.TrimSpace(opts.text) == "" && opts.audio == "" {
		return withExitCode(ExitInvalidUsage, errors.New("--text or --audio is required"))
	}
	if len(opts.targets) == 0 {
		return withExitCode(ExitInvalidUsage, errors.New("--targets must name at least one language"))
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	g := gateway.NewHTTPGateway(opts.url, opts.timeout)
	var records []models.TranslationRecord
	if opts.audio != "" {
		records = g.TranslateAudio(ctx, opts.audio, opts.targets)
	} else {
		records = g.Translate(ctx, opts.text, opts.targets)
	}

	if err := printRecords(streams.Out, records, opts.json); err != nil {
		return err
	}

	if msg, failed := gateway.FallbackError(records); failed {
		return withExitCode(ExitRuntimeFailure, errors.New(msg))
	}
	return nil
}

func printRecords(w io.Writer, records []models.TranslationRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tTRANSLATION\tAUDIO")
	for _, r := range records {
		audio := r.AudioFile
		if audio == "" {
			audio = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Language, r.Translation, audio)
	}
	return tw.Flush()
}
