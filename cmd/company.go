package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-wizard/internal/model"
)

var (
	companyURL     string
	companyEdits   []string
	companyConfirm bool
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Generate a company profile from a website URL",
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

		edits, err := parseEdits(companyEdits)
		if err != nil {
			return err
		}

		return runWizardFlow(ctx, st, model.KindCompanyProfile, companyURL, edits, companyConfirm)
	},
}

func init() {
	companyCmd.Flags().StringVar(&companyURL, "url", "", "company website URL (required)")
	companyCmd.Flags().StringArrayVar(&companyEdits, "edit", nil, "override a generated field, key=value (repeatable)")
	companyCmd.Flags().BoolVar(&companyConfirm, "confirm", false, "persist the result after review")
	_ = companyCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(companyCmd)
}
