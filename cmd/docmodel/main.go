// Package main is the entry point for the docmodel replay tool.
//
// It builds a document from model markup, applies a log of serialized
// operations to it and prints the resulting roots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidwall/gjson"

	"github.com/dshills/docmodel/internal/config"
	"github.com/dshills/docmodel/internal/logging"
	"github.com/dshills/docmodel/internal/model"
	"github.com/dshills/docmodel/internal/model/devutil"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/store"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage marks errors caused by bad command line input.
var errUsage = errors.New("usage")

type options struct {
	configPath string
	data       string
	root       string
	opsPath    string
	docID      string
	save       string
	logLevel   string
	graveyard  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, exit, err := parseFlags(args, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if exit {
		return 0
	}

	if err := replay(ctx, opts, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, bool, error) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("docmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.data, "data", "", "Initial model markup, e.g. <paragraph>foo</paragraph>")
	fs.StringVar(&opts.root, "root", "", "Root receiving -data (default: first configured root)")
	fs.StringVar(&opts.opsPath, "ops", "", "JSON array of operations to apply (- for stdin)")
	fs.StringVar(&opts.docID, "doc", "", "Replay the stored operation log of this document")
	fs.StringVar(&opts.save, "save", "", "Append the applied operations to the log of this document")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	fs.BoolVar(&opts.graveyard, "graveyard", false, "Also print the graveyard")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "docmodel - replay operations against a document model\n\n")
		fmt.Fprintf(stderr, "Usage: docmodel replay [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  docmodel replay -data '<paragraph>foo</paragraph>' -ops ops.json\n")
		fmt.Fprintf(stderr, "  docmodel replay -config docmodel.toml -doc notes\n")
	}

	if len(args) > 0 && args[0] == "replay" {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, true, nil
		}
		return opts, false, err
	}
	if showVersion {
		fmt.Fprintf(stdout, "docmodel %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, true, nil
	}
	if fs.NArg() > 0 {
		return opts, false, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	if opts.opsPath != "" && opts.docID != "" {
		return opts, false, errors.New("-ops and -doc are mutually exclusive")
	}
	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return opts, false, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
	}
	return opts, false, nil
}

func replay(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	loadOpts := []config.Option{}
	if opts.configPath != "" {
		loadOpts = append(loadOpts, config.WithFile(opts.configPath))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logCfg := cfg.Logging.LoggerConfig()
	logCfg.Output = stderr
	log := logging.New(logCfg)

	doc := model.New(
		model.WithVersion(cfg.Document.InitialVersion),
		model.WithRoots(cfg.Document.Roots...),
		model.WithLogger(log),
	)
	rootName := opts.root
	if rootName == "" {
		rootName = cfg.Document.Roots[0]
	}
	root := doc.Root(rootName)
	if root == nil {
		return fmt.Errorf("%w: unknown root %q", errUsage, rootName)
	}
	if err := devutil.Parse(root, opts.data); err != nil {
		return fmt.Errorf("parsing -data: %w", err)
	}

	var s store.Store
	if opts.docID != "" || opts.save != "" {
		s, err = store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
	}

	records, err := readRecords(ctx, opts, s, cfg.Document.InitialVersion, stdin)
	if err != nil {
		return err
	}
	start := doc.Version()
	for i, rec := range records {
		op, err := operation.FromJSON(rec, doc)
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if err := doc.ApplyOperation(op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Type(), err)
		}
	}
	log.WithField("version", doc.Version()).Info("applied %d operations", len(records))

	if opts.save != "" {
		if err := save(ctx, s, opts.save, doc, start); err != nil {
			return err
		}
	}

	for _, name := range doc.RootNames() {
		fmt.Fprintf(stdout, "%s: %s\n", name, devutil.Stringify(doc.Root(name).AsElement()))
	}
	if opts.graveyard {
		fmt.Fprintf(stdout, "%s: %s\n", doc.Graveyard().RootName(), devutil.Stringify(doc.Graveyard().AsElement()))
	}
	return nil
}

// readRecords returns the serialized operations to apply. Stored logs count
// from zero, so their records are restamped onto the document version.
func readRecords(ctx context.Context, opts options, s store.Store, initialVersion int, stdin io.Reader) ([][]byte, error) {
	switch {
	case opts.docID != "":
		stored, err := s.Load(ctx, opts.docID, 0)
		if err != nil {
			return nil, err
		}
		for i, rec := range stored {
			if stored[i], err = store.Restamp(rec, initialVersion+i); err != nil {
				return nil, err
			}
		}
		return stored, nil

	case opts.opsPath != "":
		var data []byte
		var err error
		if opts.opsPath == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(opts.opsPath)
		}
		if err != nil {
			return nil, fmt.Errorf("reading operations: %w", err)
		}
		list := gjson.ParseBytes(data)
		if !list.IsArray() {
			return nil, fmt.Errorf("%w: expected an array of operations", operation.ErrInvalidOperation)
		}
		var records [][]byte
		for _, item := range list.Array() {
			records = append(records, []byte(item.Raw))
		}
		return records, nil
	}
	return nil, nil
}

// save appends every operation applied since start to the log of docID.
func save(ctx context.Context, s store.Store, docID string, doc *model.Document, start int) error {
	logVersion, err := s.Version(ctx, docID)
	if err != nil {
		return err
	}
	var records [][]byte
	for op := range doc.History().Operations(start) {
		data, err := op.MarshalJSON()
		if err != nil {
			return err
		}
		if data, err = store.Restamp(data, logVersion+len(records)); err != nil {
			return err
		}
		records = append(records, data)
	}
	return s.Append(ctx, docID, records...)
}
