package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/camsentry/internal/api"
	"github.com/good-yellow-bee/camsentry/internal/hub"
	"github.com/good-yellow-bee/camsentry/internal/integrations"
	"github.com/good-yellow-bee/camsentry/internal/metrics"
	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/monitor"
	"github.com/good-yellow-bee/camsentry/internal/registry"
	"github.com/good-yellow-bee/camsentry/pkg/config"
)

var (
	configFile string
	listenAddr string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "camsentry",
	Short: "CamSentry - Home security camera relay server",
	Long: `CamSentry receives frames and status from security cameras, relays
them to browser sessions, forwards captures to Nextcloud and Pushover,
and monitors a Suricata eve.json log for network alerts.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("camsentry %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&listenAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}
	cfg.Verbose = verbose

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	// Core state
	cameras := registry.New()
	commands := registry.NewCommandQueue()
	h := hub.New(cameras)

	// Outbound integrations
	mgr, err := buildIntegrations(cfg)
	if err != nil {
		return err
	}

	// Event monitor
	var mon *monitor.Monitor
	if cfg.Integrations.Suricata.Enabled {
		mon = monitor.New(monitor.Config{
			MaxAlerts: cfg.Integrations.Suricata.MaxAlerts,
			MaxEvents: cfg.Integrations.Suricata.MaxEvents,
		})
		mon.Subscribe(func(alert models.Alert) {
			h.BroadcastAlert(alert)
			if mgr != nil && cfg.Integrations.Suricata.AlertNotifications &&
				int(alert.Severity) <= cfg.Integrations.Suricata.NotifyOnSeverity {
				mgr.Alert(alert)
			}
		})
	}

	// API server
	apiSrv, err := api.New(&api.Config{
		Address:      cfg.Server.Address,
		AuthUser:     cfg.Auth.Username,
		AuthPassword: cfg.Auth.Password,
		Verbose:      cfg.Verbose,
	}, cameras, commands, h, mon, mgr)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	go h.Run()

	// A missing eve log is not fatal: the monitor stays inactive and the
	// rest of the relay keeps working.
	if mon != nil {
		if err := mon.Start(ctx, cfg.Integrations.Suricata.EveLogPath); err != nil {
			log.Printf("event monitor not started: %v", err)
		} else {
			defer mon.Stop()
		}
	}

	log.Printf("starting camsentry %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiSrv.Run(gctx) })
	g.Go(func() error { return metricsSrv.Run(gctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}

// buildIntegrations wires the enabled outbound integrations into a manager.
// Returns nil when neither integration is enabled.
func buildIntegrations(cfg *Config) (*integrations.Manager, error) {
	var uploader integrations.Uploader
	var notifier integrations.Notifier

	if nc := cfg.Integrations.Nextcloud; nc.Enabled {
		client, err := integrations.NewNextcloudClient(integrations.NextcloudConfig{
			URL:      nc.URL,
			Username: nc.Username,
			Password: nc.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("configure nextcloud: %w", err)
		}
		uploader = client
		log.Printf("nextcloud uploads enabled (%s)", nc.URL)
	}

	if po := cfg.Integrations.Pushover; po.Enabled {
		client, err := integrations.NewPushoverClient(integrations.PushoverConfig{
			Token:    po.APIToken,
			UserKey:  po.UserKey,
			Priority: po.Priority,
			Sound:    po.Sound,
		})
		if err != nil {
			return nil, fmt.Errorf("configure pushover: %w", err)
		}
		notifier = client
		log.Printf("pushover notifications enabled")
	}

	if uploader == nil && notifier == nil {
		return nil, nil
	}

	return integrations.NewManager(uploader, notifier, integrations.ManagerConfig{
		SaveInterval:   cfg.Integrations.Nextcloud.SaveIntervalDuration(),
		NotifyInterval: cfg.Integrations.Pushover.NotifyIntervalDuration(),
		MotionFolder:   cfg.Integrations.Nextcloud.MotionFolder,
		VideoFolder:    cfg.Integrations.Nextcloud.VideoFolder,
	}), nil
}
