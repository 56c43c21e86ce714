package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/config"
	"github.com/pageflip/pageflip/internal/home"
	"github.com/pageflip/pageflip/internal/server"
	"github.com/pageflip/pageflip/internal/source"
)

var (
	serveHost    string
	servePort    string
	serveGallery string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pageflip server",
	Long: `Start the pageflip HTTP server over a gallery.

The gallery is taken from --gallery or the gallery.path config value and
may be a directory of images or a PDF file.

The server provides:
  - /health                      - Server health check
  - /api/gallery                 - Collection state and page count
  - /api/pages/{index}/image     - Decode and return one page as PNG

Examples:
  pageflip serve --gallery ./scans          # Serve a directory of images
  pageflip serve --gallery book.pdf         # Serve a PDF's pages
  pageflip serve --port 3000                # Custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.OnChange(func(c *config.Config) {
			logger.Info("config changed; restart to apply gallery settings")
		})
		cm.WatchConfig()
		cfg := cm.Get()

		galleryPath := serveGallery
		if galleryPath == "" {
			galleryPath = cfg.Gallery.Path
		}
		if galleryPath == "" {
			return fmt.Errorf("no gallery configured: pass --gallery or set gallery.path")
		}
		galleryPath, err = resolveGallery(h, galleryPath)
		if err != nil {
			return err
		}

		src, err := newSource(galleryPath, cfg.Gallery.DPI)
		if err != nil {
			return err
		}

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:   host,
			Port:   port,
			Source: src,
			Accept: source.AcceptExtensions(cfg.Gallery.Extensions),
			Logger: logger,
		})
		if err != nil {
			return err
		}

		logger.Info("serving gallery", "path", galleryPath)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveGallery, "gallery", "", "gallery directory, PDF file, or named gallery under the home directory")
}
