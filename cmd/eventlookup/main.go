package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/glesirok/eventlookup/pkg/internalevent"
	"github.com/glesirok/eventlookup/pkg/lookup"
	"github.com/glesirok/eventlookup/pkg/processor"
)

type options struct {
	ruleFile  string
	input     string
	output    string
	dryRun    bool
	backup    bool
	logLevel  string
	logFormat string
}

// app 每次命令执行共享的日志和指标
type app struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	emitter  *internalevent.Emitter
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "eventlookup",
		Short: "Edit structured events with field path rules",
		Long: `eventlookup applies configurable rules to JSON lines and YAML event files.
Fields are addressed with lookup paths such as host.name, tags[-1] or labels."app.kubernetes.io/name".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(opts, stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.reportMetrics()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(opts, stdout)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.Flags().StringVarP(&opts.ruleFile, "config", "c", "", "Rule configuration file (required)")
	rootCmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input file or directory (required)")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file/directory (optional, defaults to in-place)")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Dry-run mode: preview changes without writing files")
	rootCmd.Flags().BoolVar(&opts.backup, "backup", false, "Backup original files with .bak extension")

	rootCmd.MarkFlagRequired("config")
	rootCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(newParseCmd(a), newPathsCmd(a))
	return rootCmd
}

func (a *app) init(opts *options, stderr io.Writer) error {
	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", opts.logLevel)
	}
	switch opts.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", opts.logFormat)
	}

	a.logger = newLogger(opts.logLevel, opts.logFormat, stderr)
	a.registry = prometheus.NewRegistry()
	metrics, err := internalevent.NewMetrics(a.registry)
	if err != nil {
		return err
	}
	a.emitter = internalevent.NewEmitter(a.logger, metrics)
	return nil
}

func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

func (a *app) run(opts *options, stdout io.Writer) error {
	// 创建处理器
	proc, err := processor.NewProcessor(opts.ruleFile,
		processor.WithLogger(a.logger),
		processor.WithEmitter(a.emitter),
		processor.WithOutput(stdout),
	)
	if err != nil {
		a.reportRuleError(err)
		return fmt.Errorf("create processor: %w", err)
	}

	// 判断输入类型
	info, err := os.Stat(opts.input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		if err := proc.ProcessDirectory(opts.input, opts.output, opts.dryRun, opts.backup); err != nil {
			return err
		}
		if !opts.dryRun {
			fmt.Fprintln(stdout, "✓ All files processed successfully")
		}
		return nil
	}

	outputFile := opts.output
	if outputFile == "" {
		outputFile = opts.input // 默认原地覆盖
	}

	// 只有原地覆盖才备份
	if opts.backup && !opts.dryRun && outputFile == opts.input {
		if err := processor.BackupFile(opts.input); err != nil {
			return err
		}
	}

	if err := proc.ProcessFile(opts.input, outputFile, opts.dryRun); err != nil {
		return err
	}

	if !opts.dryRun {
		if outputFile == opts.input {
			fmt.Fprintf(stdout, "✓ Processed: %s\n", opts.input)
		} else {
			fmt.Fprintf(stdout, "✓ Processed: %s → %s\n", opts.input, outputFile)
		}
	}
	return nil
}

// reportRuleError 规则文件里的非法路径单独上报
func (a *app) reportRuleError(err error) {
	var perr *lookup.ParseError
	if !errors.As(err, &perr) {
		return
	}
	a.emitter.Emit(internalevent.LookupParseFailed{
		Path:          perr.Input,
		Err:           perr,
		ComponentKind: internalevent.ComponentTransform,
		ComponentType: "rule_engine",
	})
}

// reportMetrics 退出前把计数器汇总写到 debug 日志
func (a *app) reportMetrics() {
	if a.registry == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Warn("Failed to gather metrics.", "error", err)
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		a.logger.Debug("Metric summary.", "metric", mf.GetName(), "value", total)
	}
}
