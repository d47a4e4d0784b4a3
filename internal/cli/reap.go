package cli

import (
	"log"

	"github.com/spf13/cobra"

	"timed-quiz-service/internal/config"
)

// NewReapCmd runs a single abandoned-session sweep, for cron-style deployments.
func NewReapCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Force-complete abandoned timed sessions once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, err := buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			n, err := svc.reaper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("reaped %d sessions", n)
			return nil
		},
	}
}
