// Command treelai translates JSON and YAML documents leaf by leaf.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ZaguanLabs/treelai"
	"github.com/ZaguanLabs/treelai/internal/backend"
	"github.com/ZaguanLabs/treelai/internal/config"
	"github.com/ZaguanLabs/treelai/internal/logging"
	"github.com/ZaguanLabs/treelai/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   treelai.Name,
		Short: treelai.Description,
		Long: `treelai translates every string leaf of a JSON or YAML document and
writes the result back out in either format. Keys, structure and order are
preserved. Objects marked with "translation_hash": true are translated as a
single leaf using their own text, language and formality settings.

Configuration is read from the environment (and .env); flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTranslateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, treelai.BuildInfo())
			}

			fmt.Fprintf(out, "%s %s\n", treelai.Name, treelai.FullVersion())
			if treelai.GitCommit != "unknown" && treelai.GitCommit != "" {
				fmt.Fprintf(out, "  commit:  %s\n", treelai.GitCommit)
			}
			if treelai.BuildDate != "unknown" && treelai.BuildDate != "" {
				fmt.Fprintf(out, "  built:   %s\n", treelai.BuildDate)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output build information as JSON")
	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateOptions struct {
	lang          string
	inputFormat   string
	exportFormat  string
	protect       []string
	parallel      int
	onError       string
	coerceScalars bool
	provider      string
	model         string
	output        string
	timeout       time.Duration
	dryRun        bool
	jsonOutput    bool
	quiet         bool
}

func newTranslateCmd() *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate a JSON or YAML document",
		Long: `Translate a JSON or YAML document read from a file or stdin.

The input format is detected from --input-format, then the file extension,
then the content itself. The output format defaults to JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.lang, "lang", "l", "", "Target language code (default: TREELAI_TARGET_LANG or es)")
	f.StringVar(&opts.inputFormat, "input-format", "", "Input format hint: json, yaml or a MIME type")
	f.StringVar(&opts.exportFormat, "export-format", "json", "Output format: json or yaml")
	f.StringSliceVar(&opts.protect, "protect", nil, "Terms to never translate (repeatable or comma-separated)")
	f.IntVar(&opts.parallel, "parallel", 0, "Maximum concurrent leaf translations")
	f.StringVar(&opts.onError, "on-error", "", "Leaf failure policy: fail or fallback")
	f.BoolVar(&opts.coerceScalars, "coerce-scalars", false, "Translate numbers and booleans as text instead of rejecting them")
	f.StringVar(&opts.provider, "provider", "", "Translation provider: openai, deepl, lambda or mock")
	f.StringVar(&opts.model, "model", "", "Default OpenAI model")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Abort the whole translation after this long")
	f.BoolVar(&opts.dryRun, "dry-run", false, "List the leaves that would be translated without calling a provider")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output result as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func runTranslate(cmd *cobra.Command, opts *translateOptions, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd.Flags(), cfg, opts); err != nil {
		return err
	}

	input, inputName, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	hint := opts.inputFormat
	if hint == "" && len(args) == 1 {
		hint = filepath.Ext(args[0])
	}

	req := treelai.Request{
		Content:      input,
		InputFormat:  hint,
		ExportFormat: opts.exportFormat,
	}

	if opts.dryRun {
		return runDryRun(stdout, cfg, req, inputName, opts.jsonOutput)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	b, err := backend.New(ctx, cfg, backend.WithLogger(logger))
	if err != nil {
		return err
	}
	defer b.Close()

	translatorOpts := append(cfg.TranslatorOptions(), treelai.WithLogger(logger))
	translator := treelai.NewTranslator(b.Leaf, translatorOpts...)

	if !opts.quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, translator.TargetLang())
	}

	start := time.Now()
	result, err := translator.Translate(ctx, req)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	var out io.Writer = stdout
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if opts.jsonOutput {
		return outputJSON(out, result, elapsed)
	}

	fmt.Fprint(out, result.Content)

	if !opts.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Leaves found: %d\n", result.TotalLeaves)
		fmt.Fprintf(stderr, "  Translated:   %d\n", result.TranslatedCount)
		fmt.Fprintf(stderr, "  Fallback:     %d\n", result.FallbackCount)
	}

	return nil
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(f *pflag.FlagSet, cfg *config.Config, opts *translateOptions) error {
	if f.Changed("lang") {
		cfg.Translation.TargetLang = opts.lang
	}
	if f.Changed("protect") {
		cfg.Translation.ProtectedStrings = append(cfg.Translation.ProtectedStrings, opts.protect...)
	}
	if f.Changed("parallel") {
		cfg.Translation.Parallel = opts.parallel
	}
	if f.Changed("on-error") {
		cfg.Translation.OnLeafError = opts.onError
	}
	if opts.coerceScalars {
		cfg.Translation.Scalars = string(treelai.CoerceScalars)
	}
	if f.Changed("provider") {
		cfg.Provider = opts.provider
	}
	if f.Changed("model") {
		cfg.OpenAI.Model = opts.model
	}
	return cfg.Validate()
}

func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

// runDryRun lists what would be translated without calling a provider.
func runDryRun(stdout io.Writer, cfg *config.Config, req treelai.Request, inputName string, jsonOut bool) error {
	translator := treelai.NewTranslator(nil, cfg.TranslatorOptions()...)
	leaves, err := translator.Plan(req)
	if err != nil {
		return fmt.Errorf("planning translation: %w", err)
	}

	if jsonOut {
		type dryRunLeaf struct {
			Path       string `json:"path"`
			Text       string `json:"text"`
			TargetLang string `json:"target_lang"`
			Formality  string `json:"formality"`
			Model      string `json:"model,omitempty"`
		}
		type dryRunOutput struct {
			InputFile  string       `json:"input_file"`
			TargetLang string       `json:"target_lang"`
			LeafCount  int          `json:"leaf_count"`
			Leaves     []dryRunLeaf `json:"leaves"`
		}

		out := dryRunOutput{
			InputFile:  inputName,
			TargetLang: translator.TargetLang(),
			LeafCount:  len(leaves),
			Leaves:     make([]dryRunLeaf, len(leaves)),
		}
		for i, tc := range leaves {
			out.Leaves[i] = dryRunLeaf{
				Path:       tc.Context,
				Text:       tc.Text,
				TargetLang: tc.TargetLang,
				Formality:  string(tc.Formality),
				Model:      tc.ModelHint,
			}
		}
		return writeJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, translator.TargetLang())
	fmt.Fprintf(stdout, "Found %d translatable leaves:\n\n", len(leaves))

	for i, tc := range leaves {
		text := tc.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Fprintf(stdout, "%3d. %q\n", i+1, text)
		if tc.HasContext() {
			fmt.Fprintf(stdout, "     Path: %s\n", tc.Context)
		}
		if tc.TargetLang != translator.TargetLang() {
			fmt.Fprintf(stdout, "     Language: %s\n", tc.TargetLang)
		}
	}

	return nil
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content         string `json:"content"`
	ExportFormat    string `json:"export_format"`
	TotalLeaves     int    `json:"total_leaves"`
	TranslatedCount int    `json:"translated_count"`
	FallbackCount   int    `json:"fallback_count"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

// outputJSON writes the result as JSON.
func outputJSON(w io.Writer, result *treelai.ProcessedDocument, elapsed time.Duration) error {
	return writeJSON(w, JSONOutput{
		Content:         result.Content,
		ExportFormat:    string(result.Format),
		TotalLeaves:     result.TotalLeaves,
		TranslatedCount: result.TranslatedCount,
		FallbackCount:   result.FallbackCount,
		ElapsedMs:       elapsed.Milliseconds(),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP translation service",
		Long: `Run the HTTP translation service.

Endpoints:
  GET  /healthz
  POST /v1/translate       JSON envelope in, JSON envelope out
  POST /v1/translate/raw   document body in, translated document out
  POST /v1/plan            list the leaves a request would translate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: HTTP_ADDR or :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.New(ctx, cfg, backend.WithLogger(logger))
	if err != nil {
		return err
	}
	defer b.Close()

	translatorOpts := append(cfg.TranslatorOptions(), treelai.WithLogger(logger))
	translator := treelai.NewTranslator(b.Leaf, translatorOpts...)

	srv := server.New(translator,
		server.WithLogger(logger),
		server.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		server.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		server.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)

	logger.Info("starting server",
		"addr", cfg.HTTP.Addr,
		"provider", cfg.Provider,
		"version", treelai.FullVersion(),
	)
	return srv.Run(ctx, cfg.HTTP.Addr)
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithFormat(logging.Format(cfg.Log.Format)),
		logging.WithAttr(slog.String("service", treelai.Name)),
	), nil
}
