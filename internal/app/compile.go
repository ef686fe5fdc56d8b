package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MrSnakeDoc/atlas/internal/compiler"
	"github.com/MrSnakeDoc/atlas/internal/config"
	"github.com/MrSnakeDoc/atlas/internal/domain"
	"github.com/MrSnakeDoc/atlas/internal/emit"
	"github.com/MrSnakeDoc/atlas/internal/logger"
	"github.com/MrSnakeDoc/atlas/internal/sources/catalog"
	"github.com/MrSnakeDoc/atlas/internal/storage"
)

// Exit codes of the compile command.
const (
	ExitOK       = 0
	ExitRejected = 1 // bad input, nothing was written
	ExitInternal = 2 // usage error, compiler defect or write failure
)

type compileFlags struct {
	dataDir  string
	outDir   string
	storage  string
	previous string
	workers  int
	logLevel string
	quiet    bool
}

func parseCompileFlags(args []string, stderr io.Writer) (*compileFlags, error) {
	f := &compileFlags{}
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataDir := os.Getenv("ATLAS_DATA_DIR")
	if dataDir == "" {
		dataDir = "data/services"
	}

	fs.StringVar(&f.dataDir, "data", dataDir, "directory tree of service YAML files")
	fs.StringVar(&f.outDir, "out", "generated", "output directory for the local storage")
	fs.StringVar(&f.storage, "storage", storage.ProviderLocal, "artifact storage: local or r2 (r2 reads ATLAS_R2_*)")
	fs.StringVar(&f.previous, "previous", "", "last published version (YYYYMMDD.SS) to continue its sequence")
	fs.IntVar(&f.workers, "workers", 0, "parallel validation workers (0 = GOMAXPROCS)")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVar(&f.quiet, "quiet", false, "only print errors")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if f.quiet {
		f.logLevel = "error"
	}
	return f, nil
}

// Compile runs a one-shot compilation and returns the process exit code.
// Nothing is written unless every record compiles.
func Compile(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseCompileFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return ExitInternal
	}

	log := logger.Nop()
	if !f.quiet {
		log = logger.New(f.logLevel, true)
	}
	defer func() { _ = log.Sync() }()

	comp := compiler.New(log, catalog.NewMapper()).WithWorkers(f.workers)
	if f.previous != "" {
		v, err := domain.ParseDatabaseVersion(f.previous)
		if err != nil {
			fmt.Fprintf(stderr, "❌ invalid -previous: %v\n", err)
			return ExitInternal
		}
		comp.SetPrevious(v)
	}

	srcs, err := catalog.NewLoader(f.dataDir).Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ failed to load service records: %v\n", err)
		return ExitRejected
	}

	sink, err := openSink(f, log)
	if err != nil {
		fmt.Fprintf(stderr, "❌ failed to open artifact storage: %v\n", err)
		return ExitInternal
	}
	prev, ok, err := sink.previousVersion(ctx, log)
	if err != nil {
		fmt.Fprintf(stderr, "❌ failed to read published catalog: %v\n", err)
		return ExitInternal
	}
	if ok {
		comp.SetPrevious(prev)
	}

	cat, err := comp.Compile(ctx, srcs)
	if code := reportCompileError(stderr, err); code != ExitOK {
		return code
	}

	if !f.quiet {
		for _, w := range cat.Warnings {
			fmt.Fprintf(stderr, "⚠️  %s (%s): %s\n", w.RecordID, w.Source, w.Message)
		}
	}

	arts, err := emit.Artifacts(cat)
	if err != nil {
		fmt.Fprintf(stderr, "❌ failed to render artifacts: %v\n", err)
		return ExitInternal
	}

	if err := sink.write(ctx, cat, arts); err != nil {
		fmt.Fprintf(stderr, "❌ failed to write artifacts: %v\n", err)
		return ExitInternal
	}

	if !f.quiet {
		fmt.Fprintf(stdout, "✅ compiled %d services, %d providers, version %s -> %s\n",
			len(cat.Services), len(cat.Providers), cat.Version, sink.dest)
	}
	return ExitOK
}

func reportCompileError(stderr io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	var ce *domain.CompileError
	switch {
	case errors.As(err, &ce):
		for _, line := range ce.Lines() {
			fmt.Fprintf(stderr, "❌ %s\n", line)
		}
		fmt.Fprintf(stderr, "compilation failed: %d errors, nothing written\n", len(ce.Failures))
		return ExitRejected
	case errors.Is(err, compiler.ErrEmptyCatalog):
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return ExitRejected
	default:
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return ExitInternal
	}
}

// artifactSink is where compiled artifacts go. Local output is flat; bucket
// output is versioned under prefix with a latest/ copy.
type artifactSink struct {
	st        storage.Storage
	prefix    string
	versioned bool
	dest      string
}

func openSink(f *compileFlags, log logger.Logger) (*artifactSink, error) {
	if f.storage == storage.ProviderLocal {
		st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: f.outDir}, log)
		if err != nil {
			return nil, err
		}
		return &artifactSink{st: st, dest: f.outDir}, nil
	}

	cfg := config.LoadStorage(f.storage)
	st, err := NewArtifactStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	return &artifactSink{
		st:        st,
		prefix:    cfg.ArtifactPrefix,
		versioned: true,
		dest:      fmt.Sprintf("%s:%s/%s", cfg.StorageProvider, cfg.R2Bucket, cfg.ArtifactPrefix),
	}, nil
}

func (s *artifactSink) binaryKey() string {
	if s.versioned {
		return storage.LatestKey(s.prefix, emit.BinaryName)
	}
	return emit.BinaryName
}

// previousVersion reads the version of the table already at the destination.
// A missing table is not an error; an unreadable one is skipped with a warning.
func (s *artifactSink) previousVersion(ctx context.Context, log logger.Logger) (domain.DatabaseVersion, bool, error) {
	rc, _, err := s.st.Get(ctx, s.binaryKey())
	if storage.IsNotFound(err) {
		return domain.DatabaseVersion{}, false, nil
	}
	if err != nil {
		return domain.DatabaseVersion{}, false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.DatabaseVersion{}, false, err
	}
	table, err := emit.ParseBinary(data)
	if err != nil {
		log.Warn("ignoring unreadable published catalog",
			logger.String("key", s.binaryKey()),
			logger.Error(err))
		return domain.DatabaseVersion{}, false, nil
	}
	return table.Header.Version, true, nil
}

func (s *artifactSink) write(ctx context.Context, cat *domain.Catalog, arts []emit.Artifact) error {
	if s.versioned {
		return emit.Publish(ctx, s.st, s.prefix, cat.Version, arts)
	}
	return emit.WriteAll(ctx, s.st, arts)
}
