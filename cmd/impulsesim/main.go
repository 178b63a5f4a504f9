// Command impulsesim runs one of the built-in scenes headless, optionally streaming the
// body transforms to websocket clients.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/internal/stream"
	"golang.org/x/sync/errgroup"
)

type options struct {
	scene   string
	steps   int
	dt      float64
	listen  string
	rate    float64
	workers int
	sleep   bool
	verbose bool
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("impulsesim", flag.ContinueOnError)
	fs.StringVar(&opts.scene, "scene", "drop", "scene to run: "+strings.Join(sceneNames(), "|"))
	fs.IntVar(&opts.steps, "steps", 600, "number of steps, 0 runs until interrupted")
	fs.Float64Var(&opts.dt, "dt", 1.0/60.0, "fixed time step in seconds")
	fs.StringVar(&opts.listen, "listen", "", "address serving the websocket stream on /ws, empty disables it")
	fs.Float64Var(&opts.rate, "rate", 0, "steps per wall clock second, 0 runs as fast as possible")
	fs.IntVar(&opts.workers, "workers", impulse.DefaultWorkers, "goroutines used by the per body work")
	fs.BoolVar(&opts.sleep, "sleep", false, "let resting bodies fall asleep")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if _, ok := scenes[opts.scene]; !ok {
		return opts, fmt.Errorf("unknown scene %q", opts.scene)
	}
	if opts.dt <= 0 {
		return opts, fmt.Errorf("dt must be positive, got %g", opts.dt)
	}
	if opts.steps < 0 {
		return opts, fmt.Errorf("negative step count %d", opts.steps)
	}
	if opts.steps == 0 && opts.listen == "" && opts.rate <= 0 {
		return opts, errors.New("an endless run needs -listen or -rate")
	}

	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("impulsesim failed", "error", err)
		os.Exit(1)
	}
}

// simulation guards the world shared by the step loop and the http handlers
type simulation struct {
	mu     sync.Mutex
	world  *impulse.World
	states []stream.BodyState
}

func (s *simulation) step(dt float64) []impulse.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Step(dt)
}

// snapshot copies the world state, the result does not alias the world
func (s *simulation) snapshot() stream.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := stream.SnapshotOf(s.world, s.states)
	s.states = snapshot.Bodies
	snapshot.Bodies = append([]stream.BodyState(nil), snapshot.Bodies...)
	return snapshot
}

func newSimulation(opts options, logger *slog.Logger) (*simulation, error) {
	config := impulse.DefaultConfig()
	config.AllowSleep = opts.sleep
	config.Workers = opts.workers
	config.Logger = logger
	if opts.workers > 1 {
		config.Broadphase = impulse.NewGridBroadphase(2, 1024)
	}

	world, err := impulse.NewWorld(config)
	if err != nil {
		return nil, err
	}
	if err := scenes[opts.scene](world); err != nil {
		return nil, err
	}

	counts := make(map[impulse.EventType]int)
	for _, eventType := range []impulse.EventType{impulse.BeginContact, impulse.EndContact, impulse.Sleep, impulse.WakeUp} {
		world.Subscribe(eventType, func(event impulse.Event) {
			counts[event.Type]++
			logger.Debug(event.Type.String(), "step", event.Step, "bodyA", bodyID(event), "bodyB", otherID(event))
		})
	}
	world.Subscribe(impulse.PostStep, func(event impulse.Event) {
		if event.Step%600 == 0 {
			logger.Info("progress", "step", event.Step,
				"beginContact", counts[impulse.BeginContact], "endContact", counts[impulse.EndContact],
				"sleep", counts[impulse.Sleep], "wakeup", counts[impulse.WakeUp])
		}
	})

	logger.Info("scene loaded", "scene", opts.scene, "bodies", len(world.Bodies), "workers", opts.workers)
	return &simulation{world: world}, nil
}

func bodyID(event impulse.Event) int {
	if event.BodyA == nil {
		return -1
	}
	return event.BodyA.ID()
}

func otherID(event impulse.Event) int {
	if event.BodyB == nil {
		return -1
	}
	return event.BodyB.ID()
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	sim, err := newSimulation(opts, logger)
	if err != nil {
		return err
	}

	var hub *stream.Hub
	g, ctx := errgroup.WithContext(ctx)
	// done stops the http server once a bounded run completes
	done := make(chan struct{})

	if opts.listen != "" {
		hub = stream.NewHub(logger)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(sim.snapshot()); err != nil {
				logger.Warn("state encoding failed", "error", err)
			}
		})
		server := &http.Server{Addr: opts.listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("streaming", "addr", opts.listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-done:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hub.Close()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer close(done)
		return loop(ctx, opts, sim, hub, logger)
	})

	return g.Wait()
}

// loop steps the world, paced by the rate when positive
func loop(ctx context.Context, opts options, sim *simulation, hub *stream.Hub, logger *slog.Logger) error {
	var tick <-chan time.Time
	if opts.rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / opts.rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	for i := 0; opts.steps == 0 || i < opts.steps; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		sim.step(opts.dt)

		if hub != nil && hub.Len() > 0 {
			if err := hub.Broadcast(sim.snapshot()); err != nil {
				logger.Debug("broadcast dropped clients", "error", err)
			}
		}
	}

	final := sim.snapshot()
	logger.Info("run complete", "steps", final.Step, "time", final.Time, "elapsed", time.Since(start))
	for _, body := range final.Bodies {
		logger.Info("body", "id", body.ID, "type", body.Type, "position", body.Position, "sleeping", body.Sleeping)
	}

	return nil
}
