// Package main provides the chainpreview command: it loads a base image
// (and optionally a secondary image), applies a filter chain described in a
// JSON file, and writes the rendered result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/glowkit/filterchain/pkg/catalog"
	"github.com/glowkit/filterchain/pkg/chain"
	"github.com/glowkit/filterchain/pkg/engine"
	"github.com/glowkit/filterchain/pkg/registry/builtin"
	"github.com/glowkit/filterchain/pkg/storage"
)

var (
	chainPath  = flag.String("chain", "", "Path to a chain JSON file (empty renders the base image unchanged)")
	baseURI    = flag.String("base", "", "Base image URI (file://, http(s)://, s3://, or a bare path)")
	secondURI  = flag.String("secondary", "", "Secondary image URI for composite/transition filters")
	scaleToFit = flag.Bool("scale-to-fit", false, "Rescale the secondary image to the base image's extent")
	outURI     = flag.String("out", "preview.png", "Output image URI")
	watchMode  = flag.Bool("watch", false, "Keep running and re-render whenever the chain file changes (requires -chain)")
	listAll    = flag.Bool("list", false, "List available filters and exit")
	showAll    = flag.Bool("show-all", false, "Include reference-only filters in -list output")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	reg := builtin.New()
	cat := catalog.Build(reg, logger)

	if *listAll {
		listFilters(cat, *showAll)
		return
	}

	if *baseURI == "" {
		fmt.Fprintln(os.Stderr, "usage: chainpreview -base <uri> [-chain <file>] [-secondary <uri>] [-out <uri>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, reg, cat); err != nil {
		var rerr *engine.RenderError
		if errors.As(err, &rerr) {
			logger.Fatal("render failed",
				zap.String("filter", rerr.FilterName),
				zap.String("entry", rerr.EntryID))
		}
		logger.Fatal("chainpreview failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, reg *builtin.Registry, cat *catalog.Catalog) error {
	resolver := storage.NewResolver()

	base, err := resolver.FetchImage(ctx, *baseURI)
	if err != nil {
		return err
	}
	logger.Info("loaded base image",
		zap.Int("width", base.DisplayWidth()), zap.Int("height", base.DisplayHeight()))

	input := engine.RenderInput{
		Base:                base,
		ScaleSecondaryToFit: *scaleToFit,
	}
	if *secondURI != "" {
		secondary, err := resolver.FetchImage(ctx, *secondURI)
		if err != nil {
			return err
		}
		input.Secondary = &secondary
	}

	input.Chain, err = loadChain(cat, logger)
	if err != nil {
		return err
	}

	exec := engine.NewExecutor(reg, cat, logger)

	if *watchMode {
		if *chainPath == "" {
			return fmt.Errorf("-watch requires -chain")
		}
		return watch(ctx, logger, resolver, cat, exec, input)
	}

	out, err := exec.Render(ctx, input)
	if err != nil {
		return err
	}

	if err := resolver.WriteImage(ctx, *outURI, *out); err != nil {
		return err
	}
	logger.Info("wrote rendered image", zap.String("uri", *outURI))
	return nil
}

// watchPollInterval is how often the chain file's modification time is
// checked in -watch mode.
const watchPollInterval = 250 * time.Millisecond

// watch re-renders through a scheduler each time the chain file changes,
// writing every delivered result to the output URI until the context ends.
func watch(ctx context.Context, logger *zap.Logger, resolver *storage.Resolver, cat *catalog.Catalog, exec *engine.Executor, input engine.RenderInput) error {
	sched := engine.NewScheduler(exec, engine.SchedulerOptions{Logger: logger})
	defer sched.Close()

	var lastMod time.Time
	if info, err := os.Stat(*chainPath); err == nil {
		lastMod = info.ModTime()
	}
	sched.Submit(input)

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case res := <-sched.Results():
			if res.Err != nil {
				var rerr *engine.RenderError
				if errors.As(res.Err, &rerr) {
					logger.Error("render failed",
						zap.String("filter", rerr.FilterName),
						zap.String("entry", rerr.EntryID))
				} else {
					logger.Error("render failed", zap.Error(res.Err))
				}
				continue
			}
			if err := resolver.WriteImage(ctx, *outURI, *res.Image); err != nil {
				logger.Error("failed to write rendered image", zap.Error(err))
				continue
			}
			logger.Info("wrote rendered image", zap.String("uri", *outURI))

		case <-ticker.C:
			info, err := os.Stat(*chainPath)
			if err != nil || !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()
			c, err := loadChain(cat, logger)
			if err != nil {
				logger.Warn("ignoring unreadable chain file", zap.Error(err))
				continue
			}
			input.Chain = c
			sched.Submit(input)
		}
	}
}

func loadChain(cat *catalog.Catalog, logger *zap.Logger) (chain.Chain, error) {
	if *chainPath == "" {
		return chain.New(), nil
	}

	data, err := os.ReadFile(*chainPath)
	if err != nil {
		return chain.Chain{}, fmt.Errorf("failed to read chain file: %w", err)
	}
	c, err := chain.Unmarshal(data)
	if err != nil {
		return chain.Chain{}, err
	}

	for _, entry := range c.Entries() {
		if _, ok := cat.Get(entry.Name); !ok {
			logger.Warn("chain references unknown filter", zap.String("filter", entry.Name))
		}
	}
	return c, nil
}

func listFilters(cat *catalog.Catalog, includeReference bool) {
	defs := cat.Supported()
	if includeReference {
		defs = cat.All()
	}

	for _, def := range defs {
		status := ""
		if !def.Usable() {
			status = " (not usable in a chain)"
		} else if !def.FullySupported() {
			status = " (reference only)"
		}
		fmt.Printf("%s [%s]%s\n", def.Name, def.Category, status)

		for _, p := range def.EditableParameters() {
			fmt.Printf("  %-22s %-10s default=%v range=[%v, %v]\n",
				p.Name, p.Type, p.PreferredDefault(),
				p.PreferredSliderMin(), p.PreferredSliderMax())
		}
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
