package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/config"
	"github.com/pageflip/pageflip/internal/gallery"
	"github.com/pageflip/pageflip/internal/home"
	"github.com/pageflip/pageflip/internal/messages"
	"github.com/pageflip/pageflip/internal/source"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <path> <index>",
	Short: "Decode one page of a gallery to a PNG file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index must be an integer: %s", args[1])
		}

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

		sink := &renderSink{
			ready:  make(chan struct{}, 1),
			result: make(chan renderResult, 1),
		}
		p, err := gallery.New(gallery.Config{
			Source: src,
			Sink:   sink,
			Accept: source.AcceptExtensions(cfg.Gallery.Extensions),
		})
		if err != nil {
			return err
		}

		p.Start(ctx)
		defer p.Stop()

		select {
		case <-sink.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := p.Err(); err != nil {
			return err
		}
		// The worker exits after an empty listing; a request would never
		// be served.
		if p.PageCount() == 0 {
			return errors.New("gallery is empty")
		}

		p.Request(index)
		select {
		case res := <-sink.result:
			if res.reason != "" {
				return errors.New(messages.ForReason(res.reason))
			}
			out := renderOut
			if out == "" {
				out = fmt.Sprintf("page_%04d.png", index)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := png.Encode(f, res.img); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "O", "", "output file (default: page_<index>.png)")
}

type renderResult struct {
	img    image.Image
	reason gallery.FailReason
}

// renderSink collects the single terminal notification a render needs.
type renderSink struct {
	ready  chan struct{}
	result chan renderResult
}

func (s *renderSink) StateChanged() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *renderSink) PageWaiting(int) {}

func (s *renderSink) PageSucceeded(_ int, img image.Image) {
	s.result <- renderResult{img: img}
}

func (s *renderSink) PageFailed(_ int, reason gallery.FailReason) {
	s.result <- renderResult{reason: reason}
}
