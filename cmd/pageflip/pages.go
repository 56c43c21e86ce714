package main

import (
	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/api"
	"github.com/pageflip/pageflip/internal/config"
	"github.com/pageflip/pageflip/internal/home"
	"github.com/pageflip/pageflip/internal/source"
)

// PageListing is the output of the pages command.
type PageListing struct {
	Path  string   `json:"path" yaml:"path"`
	Count int      `json:"count" yaml:"count"`
	Pages []string `json:"pages" yaml:"pages"`
}

var pagesCmd = &cobra.Command{
	Use:   "pages <path>",
	Short: "List a gallery's pages in serving order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		path, err := resolveGallery(h, args[0])
		if err != nil {
			return err
		}

		src, err := newSource(path, cfg.Gallery.DPI)
		if err != nil {
			return err
		}

		entries, err := src.List(source.AcceptExtensions(cfg.Gallery.Extensions))
		if err != nil {
			return err
		}
		source.SortByName(entries)

		listing := PageListing{
			Path:  path,
			Count: len(entries),
			Pages: make([]string, 0, len(entries)),
		}
		for _, e := range entries {
			name, ok := e.Name()
			if !ok {
				name = "(unnamed)"
			}
			listing.Pages = append(listing.Pages, name)
		}

		return api.Output(listing)
	},
}
