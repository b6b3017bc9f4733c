package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-wizard/internal/model"
)

var (
	privacyAccountID string
	privacyConfirm   bool
)

var privacyCmd = &cobra.Command{
	Use:   "privacy",
	Short: "Run privacy request wizards",
}

var privacyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Prepare a data export for an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrivacyWizard(cmd, model.KindDataExport)
	},
}

var privacyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Prepare an account deletion request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrivacyWizard(cmd, model.KindAccountDeletion)
	},
}

func runPrivacyWizard(cmd *cobra.Command, kind model.WizardKind) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	// Privacy payloads are prepared server-side and not editable here.
	return runWizardFlow(ctx, st, kind, privacyAccountID, nil, privacyConfirm)
}

func init() {
	privacyCmd.PersistentFlags().StringVar(&privacyAccountID, "account", "", "account ID (required)")
	privacyCmd.PersistentFlags().BoolVar(&privacyConfirm, "confirm", false, "persist the request after review")
	_ = privacyCmd.MarkPersistentFlagRequired("account")

	privacyCmd.AddCommand(privacyExportCmd)
	privacyCmd.AddCommand(privacyDeleteCmd)
	rootCmd.AddCommand(privacyCmd)
}
