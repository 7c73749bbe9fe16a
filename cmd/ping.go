package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rain-app/reservations-web/internal/config"
	"github.com/rain-app/reservations-web/internal/rainapi"
)

// newPingCmd verifies RAIN_HOST and the API key by fetching a known client
// record, so a broken deploy is caught before traffic hits it.
func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping <clientId>",
		Short: "Verify the backend host and API key by fetching a client record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			api := rainapi.New(cfg.RainHost, cfg.RainAPIKey, cfg.APITimeout)

			cl, err := api.FetchClient(context.Background(), args[0])
			switch {
			case errors.Is(err, rainapi.ErrUnauthorized):
				return fmt.Errorf("backend rejected the API key (401)")
			case errors.Is(err, rainapi.ErrNotFound):
				return fmt.Errorf("client %q not found (host and key look fine)", args[0])
			case err != nil:
				return fmt.Errorf("backend unreachable: %w", err)
			}

			fmt.Printf("ok: %s (%s)\n", cl.ClientName, cl.ID)
			return nil
		},
	}
}
