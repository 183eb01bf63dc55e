package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betcore/internal/config"
	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/engine"
	"github.com/alanyoungcy/betcore/internal/pipeline"
	"github.com/alanyoungcy/betcore/internal/server"
	"github.com/alanyoungcy/betcore/internal/server/handler"
	"github.com/alanyoungcy/betcore/internal/store/memory"
)

const (
	leaseTTL          = 30 * time.Second
	leaseRefreshEvery = 10 * time.Second
	drainPollEvery    = 50 * time.Millisecond
)

// IndexMode follows the delivered event stream and persists derived state to
// Postgres. It holds the single-writer lease for its chain while running.
func (a *App) IndexMode(ctx context.Context, deps *Dependencies) error {
	eng := engine.New(deps.Store, deps.Readers, engineOptions(a.cfg), a.log, deps.Metrics)
	if err := seedRegistry(ctx, eng, a.cfg); err != nil {
		return fmt.Errorf("app: seed registry: %w", err)
	}

	var keepalive func(context.Context) error
	if deps.Lease != nil {
		release, ka, err := deps.Lease.Acquire(ctx, a.cfg.Chain.Name, leaseTTL)
		if err != nil {
			return fmt.Errorf("app: acquire lease: %w", err)
		}
		defer release()
		keepalive = ka
	}

	var archiver *pipeline.Archiver
	if deps.BlobWriter != nil {
		archiver = pipeline.NewArchiver(
			deps.BlobWriter,
			a.cfg.S3.Prefix,
			a.cfg.Chain.Name,
			a.cfg.S3.FlushInterval.Duration,
			a.cfg.S3.MaxBatch,
			a.log,
		)
	}

	disp := pipeline.NewDispatcher(eng, archiver, deps.Metrics, a.log, a.cfg.Pipeline.BufferSize)

	input, closeInput, err := a.openInput()
	if err != nil {
		return err
	}
	defer closeInput()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return ignoreCancel(disp.Run(gctx))
	})

	if archiver != nil {
		g.Go(func() error {
			return ignoreCancel(archiver.Run(gctx))
		})
	}

	if keepalive != nil {
		g.Go(func() error {
			ticker := time.NewTicker(leaseRefreshEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := keepalive(gctx); err != nil {
						if errors.Is(err, domain.ErrLeaseHeld) {
							return fmt.Errorf("app: lease lost: %w", err)
						}
						a.log.Warn("lease keepalive failed", "error", err)
					}
				}
			}
		})
	}

	if srv := a.buildServer(deps); srv != nil {
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), a.cfg.Pipeline.ShutdownTimeout.Duration)
			defer shutCancel()
			return srv.Shutdown(shutCtx)
		})
	}

	g.Go(func() error {
		err := pipeline.ReadStream(gctx, input, disp.Submit)
		if err != nil {
			return err
		}
		// Stream exhausted: let the dispatcher drain what it already has,
		// then stop everything.
		a.log.Info("event stream ended, draining")
		for disp.QueueLen() > 0 {
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(drainPollEvery):
			}
		}
		cancel()
		return nil
	})

	return ignoreCancel(g.Wait())
}

// DryrunMode replays an event stream against the in-memory store, applying
// every handler without Postgres or Redis, and reports totals. With S3
// enabled it replays the archived batches instead of a local stream.
func (a *App) DryrunMode(ctx context.Context, deps *Dependencies) error {
	store := memory.New()
	eng := engine.New(store, deps.Readers, engineOptions(a.cfg), a.log, deps.Metrics)
	if err := seedRegistry(ctx, eng, a.cfg); err != nil {
		return fmt.Errorf("app: seed registry: %w", err)
	}

	disp := pipeline.NewDispatcher(eng, nil, deps.Metrics, a.log, 1)

	var handled, failed int
	apply := func(ctx context.Context, ev any) error {
		name := pipeline.EventName(ev)
		if err := disp.Apply(ctx, ev); err != nil {
			failed++
			a.log.Warn("replay event failed", "event", name, "error", err)
			return nil
		}
		handled++
		return nil
	}

	start := time.Now()
	var err error
	if deps.BlobReader != nil {
		err = a.replayArchive(ctx, deps, apply)
	} else {
		var input io.Reader
		var closeInput func()
		input, closeInput, err = a.openInput()
		if err != nil {
			return err
		}
		defer closeInput()
		err = pipeline.ReadStream(ctx, input, apply)
	}
	if err != nil {
		return fmt.Errorf("app: dryrun replay: %w", err)
	}

	a.log.Info("dryrun complete",
		"handled", handled,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// replayArchive streams every archived batch under the chain's prefix in
// key order.
func (a *App) replayArchive(ctx context.Context, deps *Dependencies, apply func(context.Context, any) error) error {
	prefix := strings.TrimRight(a.cfg.S3.Prefix, "/") + "/" + a.cfg.Chain.Name + "/"
	infos, err := deps.BlobReader.List(ctx, prefix)
	if err != nil {
		return err
	}
	a.log.Info("replaying archive", "prefix", prefix, "batches", len(infos))

	for _, info := range infos {
		body, err := deps.BlobReader.Get(ctx, info.Path)
		if err != nil {
			return err
		}
		err = pipeline.ReadStream(ctx, body, apply)
		body.Close()
		if err != nil {
			return fmt.Errorf("batch %s: %w", info.Path, err)
		}
	}
	return nil
}

// buildServer assembles the operational HTTP server, or nil when metrics are
// disabled.
func (a *App) buildServer(deps *Dependencies) *server.Server {
	if !a.cfg.Metrics.Enabled {
		return nil
	}

	checks := map[string]handler.Check{}
	if deps.PG != nil {
		checks["postgres"] = deps.PG.Pool().Ping
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis.Ping
	}
	if deps.S3 != nil {
		checks["s3"] = deps.S3.Health
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(checks),
	}
	if deps.Store != nil {
		handlers.Entities = handler.NewEntityHandler(deps.Store, deps.Store, a.log)
	}

	return server.NewServer(server.Config{Addr: a.cfg.Metrics.Addr}, handlers, deps.Registry, a.log)
}

// openInput returns the configured event stream, defaulting to stdin.
func (a *App) openInput() (io.Reader, func(), error) {
	if a.cfg.Input == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(a.cfg.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("app: open input %s: %w", a.cfg.Input, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func engineOptions(cfg *config.Config) engine.Options {
	sports := make(map[string]engine.SportEntry, len(cfg.Sports))
	for id, s := range cfg.Sports {
		sports[id] = engine.SportEntry{Name: s.Name, Hub: s.Hub}
	}
	return engine.Options{
		ChainID:   int(cfg.Chain.ID),
		ChainName: cfg.Chain.Name,
		Sports:    sports,
	}
}

// seedRegistry registers the configured pools, cores and freebet contracts
// before the first event is applied.
func seedRegistry(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	for _, p := range cfg.Pools {
		cores := make([]engine.CoreSeed, len(p.Cores))
		for i, c := range p.Cores {
			cores[i] = engine.CoreSeed{
				Address:         c.Address,
				Type:            c.Type,
				Version:         domain.ProtocolVersion(c.Version),
				PrematchAddress: c.PrematchAddress,
			}
		}
		if err := eng.RegisterPool(ctx, engine.PoolSeed{
			Address:          p.Address,
			Version:          p.Version,
			TokenAddress:     p.TokenAddress,
			LiquidityManager: p.LiquidityManager,
			FirstBlock:       domain.BlockRef{Number: p.FirstBlockNumber, Timestamp: p.FirstBlockTime},
			Cores:            cores,
		}); err != nil {
			return fmt.Errorf("pool %s: %w", p.Address, err)
		}
	}

	for _, f := range cfg.Freebets {
		if err := eng.RegisterFreebetContract(ctx, engine.FreebetContractSeed{
			Address:         f.Address,
			LiquidityPoolID: f.LPAddress,
			Name:            f.Name,
			Affiliate:       f.Affiliate,
			Manager:         f.Manager,
		}); err != nil {
			return fmt.Errorf("freebet contract %s: %w", f.Address, err)
		}
	}
	return nil
}

// ignoreCancel maps context cancellation to a clean nil return.
func ignoreCancel(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrContextDone) {
		return nil
	}
	return err
}
