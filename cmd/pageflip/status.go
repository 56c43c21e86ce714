package main

import (
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/pageflip/pageflip/internal/api"
	"github.com/pageflip/pageflip/internal/server"
)

var (
	statusServer string
	statusWait   bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a running server's gallery state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(statusServer)

		var resp server.GalleryResponse
		fetch := func() error {
			if err := client.Get(ctx, "/api/gallery", &resp); err != nil {
				return err
			}
			if statusWait && resp.State == "waiting" {
				return errStillWaiting
			}
			return nil
		}

		attempts := uint(1)
		if statusWait {
			attempts = 30
		}
		if err := retry.Do(
			fetch,
			retry.Context(ctx),
			retry.Attempts(attempts),
			retry.Delay(1*time.Second),
		); err != nil {
			return err
		}

		return api.Output(resp)
	},
}

var errStillWaiting = errors.New("gallery is still listing")

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "http://127.0.0.1:8080", "server URL")
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "retry until the gallery leaves the waiting state")
}
