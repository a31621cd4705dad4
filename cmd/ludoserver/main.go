// Command ludoserver is the CLI entrypoint: it parses the positional
// arguments from spec.md §6, wires the registries/coordinator/watchdog
// together, and drives an interactive stdin console for the admin
// commands (force_roll, set_log, set_verbose, exit/shutdown/halt/close).
// Grounded on the teacher's core/main.go Config-struct-plus-signal-select
// shutdown shape, generalized from a fixed freeroam config to positional
// CLI args and from signal-only shutdown to signal-or-console shutdown.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/dispatch"
	"github.com/ludoserver/ludoserver/internal/game"
	"github.com/ludoserver/ludoserver/internal/obs"
	"github.com/ludoserver/ludoserver/internal/server"
	"github.com/ludoserver/ludoserver/internal/session"
	"github.com/ludoserver/ludoserver/internal/watchdog"
)

const version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:   "server <ip> <port> [logfile] [log_level] [verbose_level]",
		Short: "Ludo game server",
		Args:  cobra.RangeArgs(2, 5),
		RunE:  run,
	}
	root.Flags().String("metrics-addr", "127.0.0.1:9090", "address for the Prometheus /metrics listener")

	if err := root.Execute(); err != nil {
		obs.Fatal("%+v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	host := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[1], err)
	}

	if len(args) >= 3 && args[2] != "" && args[2] != "-" {
		f, err := os.OpenFile(args[2], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open logfile %q: %w", args[2], err)
		}
		defer f.Close()
		obs.SetOutput(f)
	}
	if len(args) >= 4 {
		lvl, err := strconv.Atoi(args[3])
		if err == nil {
			obs.SetLevel(lvl)
		}
	}
	verboseLevel := 0
	if len(args) >= 5 {
		if v, err := strconv.Atoi(args[4]); err == nil {
			verboseLevel = v
		}
	}

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	obs.Banner("Ludo Server", version)
	obs.Info("binding %s:%d", host, port)
	obs.Info("max concurrent clients: %d", config.MaxConcurrentClients)
	obs.Info("verbose level: %d", verboseLevel)

	metrics := obs.NewMetrics()
	runtime := config.NewRuntime()
	sessions := session.NewRegistry()
	games := game.NewRegistry()
	coordinator := dispatch.New(sessions, games, metrics, runtime, nil)

	srv := server.New(coordinator)
	if err := srv.Listen(host, port); err != nil {
		return err
	}
	srv.ListenMetrics(metricsAddr)

	wd := watchdog.New(coordinator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Run(ctx)
	go wd.Run(ctx)

	obs.Success("server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	consoleDone := make(chan struct{})
	go runConsole(runtime, consoleDone)

	select {
	case <-sigChan:
		obs.Warn("received shutdown signal")
	case <-consoleDone:
		obs.Warn("console requested shutdown")
	}

	obs.Info("shutting down")
	cancel()
	srv.Shutdown()
	obs.Success("server stopped")
	return nil
}

// runConsole reads admin commands from stdin per spec.md §6:
// exit/shutdown/halt/close terminate the server; force_roll pins the
// die; set_log sets the log level. set_verbose only parses and echoes
// its number; it changes no setting. Closes done to signal a requested
// shutdown back to run's select.
func runConsole(runtime *config.Runtime, done chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "exit", "shutdown", "halt", "close":
			close(done)
			return
		case "force_roll":
			if len(fields) < 2 {
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				runtime.SetForceRoll(0)
				continue
			}
			runtime.SetForceRoll(n)
			if n >= 1 && n <= 6 {
				obs.Info("force_roll pinned to %d", n)
			} else {
				obs.Info("force_roll disabled")
			}
		case "set_log":
			if len(fields) < 2 {
				continue
			}
			if n, err := strconv.Atoi(fields[1]); err == nil {
				obs.SetLevel(n)
				obs.Info("log level set to %d", n)
			}
		case "set_verbose":
			if len(fields) < 2 {
				continue
			}
			if _, err := strconv.Atoi(fields[1]); err == nil {
				obs.Info("verbose level set to %s", fields[1])
			}
		default:
			obs.Warn("unrecognized console command: %s", fields[0])
		}
	}
	// EOF on stdin (e.g. stdin closed/redirected): treat as a normal
	// shutdown request rather than leaving run() blocked forever.
	close(done)
}
