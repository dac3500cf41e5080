package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quizduel/internal/app"
	pgbank "quizduel/internal/infra/postgres"
)

// NewTopicsCmd lists the topics questions are drawn from.
func NewTopicsCmd(configPath *string) *cobra.Command {
	var fromBank bool
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List question topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics := app.Topics
			if fromBank {
				cfg, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				if cfg.Postgres.URL == "" {
					return fmt.Errorf("postgres url not configured")
				}
				pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
				if err != nil {
					return err
				}
				defer pool.Close()
				topics, err = pgbank.NewQuestionBank(pool).Topics(cmd.Context())
				if err != nil {
					return err
				}
			}
			for _, topic := range topics {
				fmt.Fprintln(cmd.OutOrStdout(), topic)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromBank, "bank", false, "list topics present in the Postgres question bank")
	return cmd
}
