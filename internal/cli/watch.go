package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/metrics"
	"github.com/arthur-debert/tidyvault/pkg/notify"
	"github.com/arthur-debert/tidyvault/pkg/runner"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/arthur-debert/tidyvault/pkg/vault"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// autoQueueSize bounds rule runs waiting behind the one in progress
const autoQueueSize = 64

type watchOptions struct {
	external    bool
	auto        bool
	interval    time.Duration
	metricsAddr string
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var wo watchOptions

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			return watch(ctx, a, wo)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&wo.external, "external", false, "Also report changes made outside tidyvault")
	flags.BoolVar(&wo.auto, "auto", false, "Run a rule when a file appears in its source folder")
	flags.DurationVar(&wo.interval, "interval", 0, "Run every enabled rule at this interval")
	flags.StringVar(&wo.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	return cmd
}

// ruleQueue runs rules one at a time. A rule already waiting is not queued
// twice.
type ruleQueue struct {
	runner *runner.Runner
	ch     chan string

	mu      sync.Mutex
	pending map[string]bool
}

func newRuleQueue(r *runner.Runner) *ruleQueue {
	return &ruleQueue{
		runner:  r,
		ch:      make(chan string, autoQueueSize),
		pending: make(map[string]bool),
	}
}

func (q *ruleQueue) enqueue(ruleID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending[ruleID] {
		return
	}

	select {
	case q.ch <- ruleID:
		q.pending[ruleID] = true
	default:
		logger := logging.GetLogger("cli.watch")
		logger.Warn().Str("rule", ruleID).Msg("Run queue full, dropping rule run")
	}
}

// enqueueEnabled queues every enabled rule
func (q *ruleQueue) enqueueEnabled() {
	for _, c := range q.runner.Commands() {
		if c.Rule.Enabled {
			q.enqueue(c.Rule.ID)
		}
	}
}

// enqueueFor queues the enabled rules whose source folder contains path
func (q *ruleQueue) enqueueFor(path string) {
	for _, c := range q.runner.Commands() {
		if c.Rule.Enabled && types.IsWithin(path, c.Rule.SourcePath) {
			q.enqueue(c.Rule.ID)
		}
	}
}

func (q *ruleQueue) process(ctx context.Context) error {
	logger := logging.GetLogger("cli.watch")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ruleID := <-q.ch:
			q.mu.Lock()
			delete(q.pending, ruleID)
			q.mu.Unlock()

			// The rule may have been removed by a reload since it was queued
			if _, err := q.runner.RunCommand(runner.CommandID(ruleID)); err != nil {
				logger.Debug().Err(err).Str("rule", ruleID).Msg("Skipped queued rule")
			}
		}
	}
}

// watch observes the vault until ctx is done
func watch(ctx context.Context, a *app, wo watchOptions) error {
	logger := logging.GetLogger("cli.watch")

	settings, err := a.store.Load()
	if err != nil {
		return err
	}

	m := metrics.New()
	r, err := a.newRunner(settings, runner.WithMetrics(m))
	if err != nil {
		return err
	}
	v := a.vault

	w, err := vault.NewWatcher(v)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	observer := notify.NewObserver(v, r.Tracker(), a.notifier(), notify.ObserverOptions{
		SurfaceSelf:     true,
		SurfaceExternal: wo.external,
	})
	defer observer.Close()
	observer.AddHook(m.ObserveChange)

	queue := newRuleQueue(r)
	if wo.auto {
		observer.AddHook(func(event types.ChangeEvent, _ types.InvocationToken, self bool) {
			if !self && event.Op == types.ChangeCreated {
				queue.enqueueFor(event.Path)
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	if wo.metricsAddr != "" {
		if err := serveMetrics(gctx, g, a, m, wo.metricsAddr); err != nil {
			return err
		}
	}
	g.Go(func() error { return queue.process(gctx) })

	if wo.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(wo.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					queue.enqueueEnabled()
				}
			}
		})
	}

	g.Go(func() error {
		reload, stop := reloadSignals()
		defer stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-reload:
				settings, err := a.store.Load()
				if err != nil {
					logger.Error().Err(err).Msg("Failed to reload settings")
					continue
				}
				res := a.reconfigure(r, settings)
				_, _ = fmt.Fprintf(a.out, MsgWatchReloaded, len(res.Added), len(res.Removed), len(res.Updated))
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err := <-w.Errors():
				logger.Warn().Err(err).Msg("Watcher error")
			}
		}
	})

	_, _ = fmt.Fprintf(a.out, MsgWatchStarted, v.Root())
	logger.Info().Str("root", v.Root()).Bool("auto", wo.auto).Dur("interval", wo.interval).Msg("Watching vault")

	err = g.Wait()
	logger.Info().
		Int64("self", observer.SelfTriggered()).
		Int64("external", observer.External()).
		Msg("Stopped watching")
	return err
}

func serveMetrics(ctx context.Context, g *errgroup.Group, a *app, m *metrics.Metrics, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "cannot listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, errors.ErrInternal, "metrics server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	_, _ = fmt.Fprintf(a.out, MsgMetricsServing, ln.Addr())
	return nil
}
