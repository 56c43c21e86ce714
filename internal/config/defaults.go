package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/pageflip/pageflip/internal/source"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Gallery: GalleryConfig{
			Extensions: source.DefaultExtensions,
			DPI:        source.DefaultDPI,
		},
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# pageflip configuration
# gallery.path may point at a directory of images or a PDF file

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
