package commands

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the ionogram browser",
		Long: `Start a local web server for browsing ionogram directories.

The browser provides:
- Directory navigation below the data root
- Ionogram and noise charts with the recording passport
- Lookup of recordings by calendar date
- Live updates when recordings are added or removed`,
		Example: `  # Browse the configured data root
  ionoview serve

  # Browse a directory on a custom port
  ionoview serve --root /data/ionograms --port 3000

  # Open the browser automatically
  ionoview serve --open`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Interface to listen on (default: localhost)")
	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("open", false, "Open the browser after starting")
	cmd.Flags().Bool("watch", true, "Watch the data root for changes")
	cmd.Flags().Bool("dev", false, "Serve assets from disk and enable hot reload")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	c := NewCommandContext(cmd)
	cfg, logger := c.Cfg, c.Logger

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	serverCfg := ui.Config{
		Browser:       catalog.NewBrowser(cfg.Root, cfg.RestrictToRoot),
		Chart:         cfg.Chart.Options(),
		Host:          cfg.UI.Host,
		Port:          cfg.UI.Port,
		Watch:         cfg.UI.Watch,
		Dev:           cfg.UI.Dev,
		SessionSecret: sessionSecret(cfg.UI.SessionSecret),
		Logger:        logger.With("component", "ui"),
	}

	if cfg.UseIndex {
		store, n, err := rebuildIndex(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		serverCfg.Index = store
		c.Renderer.Muted(fmt.Sprintf("Indexed %d recordings", n))
	}
	if cfg.SearchRoot != cfg.Root && serverCfg.Index == nil {
		serverCfg.Finder = catalog.NewWalkFinder(cfg.SearchRoot)
	}

	url := "http://" + net.JoinHostPort(displayHost(cfg.UI.Host), fmt.Sprint(cfg.UI.Port))
	if cfg.UI.AutoOpen {
		go openBrowser(url)
	}

	c.Renderer.Success("Serving " + cfg.Root + " on " + url)
	c.Renderer.Muted("Press Ctrl+C to stop")

	return ui.NewServer(serverCfg).Serve(cmd.Context())
}

// sessionSecret returns the configured secret or a random one. Sessions do
// not survive a restart without a configured secret.
func sessionSecret(configured string) string {
	if configured != "" {
		return configured
	}
	return uuid.NewString() + uuid.NewString()
}

func displayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
