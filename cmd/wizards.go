package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/store"
)

var (
	wizardsKind  string
	wizardsState string
	wizardsLimit int
)

var wizardsCmd = &cobra.Command{
	Use:   "wizards",
	Short: "List recorded wizard sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sessions, err := st.ListSessions(ctx, store.SessionFilter{
			Kind:  model.WizardKind(wizardsKind),
			State: wizardsState,
			Limit: wizardsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list sessions")
		}

		return printJSON(sessions)
	},
}

func init() {
	wizardsCmd.Flags().StringVar(&wizardsKind, "kind", "", "filter by wizard kind")
	wizardsCmd.Flags().StringVar(&wizardsState, "state", "", "filter by state")
	wizardsCmd.Flags().IntVar(&wizardsLimit, "limit", 50, "max sessions to list")
	rootCmd.AddCommand(wizardsCmd)
}
