package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/signalstage/core/cmd/stagectl/wshost"
	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/internal/audit"
	"github.com/signalstage/core/internal/loader"
	"github.com/signalstage/core/internal/sysinfo"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Run the graph and accept WebSocket performer connections",
	Long: `Starts the tick loop and exposes it to live clients over a WebSocket
transport (ws://host:port/ws), wiring the connection registry and command
dispatcher behind it. Demonstrates the whole reference-host stack: hot
reload, an optional SQLite audit trail, and a live terminal dashboard.`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().String("config", "", "path to a stage.toml config file (overrides the layered default)")
	ServeCmd.Flags().String("graph", "", "path or URL to a GraphState snapshot (overrides config)")
	ServeCmd.Flags().Bool("hot-reload", false, "watch the graph file and reload on change")
	ServeCmd.Flags().Int("port", 0, "listen port (overrides config)")
	ServeCmd.Flags().Bool("audit", false, "record dispatched commands to a SQLite audit trail")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	graphPath, _ := cmd.Flags().GetString("graph")
	hotReload, _ := cmd.Flags().GetBool("hot-reload")
	portFlag, _ := cmd.Flags().GetInt("port")
	auditFlag, _ := cmd.Flags().GetBool("audit")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	state, resolvedPath, err := loadGraphState(cfg, graphPath)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if portFlag != 0 {
		port = portFlag
	}

	hub := wshost.NewHub(5000, int64(cfg.Dispatch.MaxClockSkewMS), int64(cfg.Dispatch.TravelBudgetMS), cfg.Server.AllowedOrigins)

	reg, err := buildRegistryWithHost(hub)
	if err != nil {
		return err
	}

	if auditFlag || cfg.Audit.Enabled {
		dbPath := cfg.Audit.DBPath
		if dbPath == "" {
			dbPath = "stagectl-audit.db"
		}
		db, err := audit.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		defer db.Close()
		trail := audit.New(db)
		hub.SetFrameObserver(func(f dispatch.Frame) {
			if err := trail.Record(f); err != nil {
				pterm.Warning.Printf("audit record failed: %v\n", err)
			}
		})
		pterm.Info.Printf("recording command audit trail to %s\n", dbPath)
	}

	dash := newDashboard()
	rt := runtime.New(reg, hub, runtimeOptions(cfg,
		func(durationMs, timeMs int64) { dash.recordTick(durationMs) },
		func(info runtime.WatchdogInfo) { dash.recordWatchdog(info) },
	))
	if err := rt.LoadGraph(state); err != nil {
		return err
	}

	if hotReload || cfg.Loader.HotReload {
		watcher, err := loader.NewWatcher(resolvedPath, cfg.Loader.Format, func(next *node.GraphState) error {
			return rt.LoadGraph(next)
		})
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	printStartupBanner(fmt.Sprintf("serving on :%d", port), resolvedPath, int64(cfg.Runtime.TickIntervalMS))

	rt.Start()
	defer rt.Stop()

	serverErr := make(chan error, 1)
	go func() { serverErr <- httpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	graceTicker := time.NewTicker(time.Second)
	defer graceTicker.Stop()
	dashTicker := time.NewTicker(time.Second)
	defer dashTicker.Stop()

	for {
		select {
		case err := <-serverErr:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-sigCh:
			pterm.Info.Println("\nshutting down gracefully")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(ctx)
			return nil
		case <-graceTicker.C:
			hub.ExpireGraceWindow()
		case <-dashTicker.C:
			dash.render(hub.ConnectedCount())
		}
	}
}

// dashboard tracks rolling tick/watchdog stats for the live pterm view.
type dashboard struct {
	lastTickMs   int64
	tickCount    int64
	watchdogLog  []string
	sysAvailable bool
}

func newDashboard() *dashboard {
	_, err := sysinfo.Capture()
	return &dashboard{sysAvailable: err == nil}
}

func (d *dashboard) recordTick(durationMs int64) {
	d.lastTickMs = durationMs
	d.tickCount++
}

func (d *dashboard) recordWatchdog(info runtime.WatchdogInfo) {
	entry := fmt.Sprintf("[%s] %s", info.Reason, info.Message)
	d.watchdogLog = append(d.watchdogLog, entry)
	if len(d.watchdogLog) > 5 {
		d.watchdogLog = d.watchdogLog[len(d.watchdogLog)-5:]
	}
	printWatchdog(info)
}

func (d *dashboard) render(connected int) {
	line := fmt.Sprintf("ticks=%d last=%dms clients=%d", d.tickCount, d.lastTickMs, connected)
	if d.sysAvailable {
		if snap, err := sysinfo.Capture(); err == nil {
			line += fmt.Sprintf(" cpu=%.0f%% mem=%.0f%%", snap.CPUPercent, snap.MemoryPercent)
		}
	}
	if n := len(d.watchdogLog); n > 0 {
		line += " | last watchdog: " + d.watchdogLog[n-1]
	}
	pterm.FgGray.Println(line)
}
