package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-wizard/internal/model"
)

var (
	profileURL     string
	profileEdits   []string
	profileConfirm bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Generate a personal profile from a LinkedIn URL",
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

		edits, err := parseEdits(profileEdits)
		if err != nil {
			return err
		}

		return runWizardFlow(ctx, st, model.KindPersonalProfile, profileURL, edits, profileConfirm)
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileURL, "url", "", "LinkedIn profile URL (required)")
	profileCmd.Flags().StringArrayVar(&profileEdits, "edit", nil, "override a generated field, key=value (repeatable)")
	profileCmd.Flags().BoolVar(&profileConfirm, "confirm", false, "persist the result after review")
	_ = profileCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(profileCmd)
}
