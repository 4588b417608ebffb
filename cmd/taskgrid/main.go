// Command taskgrid loads a declarative .tg.hcl grid file, wires it into a
// task-graph Executor, and runs it to completion — the example binary for
// the taskgrid library, grounded on the teacher's cmd/cli + internal/app
// wiring shape (parse flags -> build logger -> load config -> run ->
// report).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/vk/taskgrid/executor"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/x/hclgraph"
	"github.com/vk/taskgrid/x/observer"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the CLI's logic so it's testable without os.Exit.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := parseArgs(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("logger configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	registry := hclgraph.NewRegistry()
	hclgraph.RegisterBuiltins(registry)

	handles, err := hclgraph.LoadFile(ctx, cfg.GridPath, registry)
	if err != nil {
		return fmt.Errorf("loading grid %s: %w", cfg.GridPath, err)
	}
	logger.Info("grid loaded", "path", cfg.GridPath, "steps", len(handles))

	var obs *observer.Observer
	if cfg.ObserverAddr != "" {
		obs = observer.New()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", obs.ServeWS)
		srv := &http.Server{Addr: cfg.ObserverAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("observer server exited", "err", err)
			}
		}()
		logger.Info("observer listening", "addr", cfg.ObserverAddr)
		defer srv.Close()

		for i, h := range handles {
			handles[i] = obs.Wrap(fmt.Sprintf("step-%d", i), h)
		}
	}

	exec := executor.New(
		executor.WithLogger(logger),
		executor.WithWorkerCount(cfg.WorkerCount),
	)
	if obs != nil {
		exec.OnIdle(obs.OnIdle())
	}
	for _, h := range handles {
		exec.Add(h)
	}

	start := time.Now()
	logger.Info("starting concurrent execution")
	exec.Run()
	exec.Wait()
	defer exec.Close()
	logger.Info("execution finished", "duration", time.Since(start))

	for _, h := range handles {
		// observer.Wrap() returns a plain task.Handle, so wrapped steps are
		// skipped here; their completion is still visible over the
		// observer's websocket feed.
		s, ok := h.(hclgraph.Step)
		if !ok {
			continue
		}
		fmt.Fprintf(outW, "step[%s] state=%s duration=%s err=%v result=%v\n",
			s.Name(), s.State(), s.Duration(), s.Err(), s.Result())
	}
	return nil
}
