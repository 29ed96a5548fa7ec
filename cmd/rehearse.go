package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/app"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/tui"
)

var rehearseCmd = &cobra.Command{
	Use:   "rehearse",
	Short: "Rehearse a simulation by typing in the terminal",
	Long: `Run a role-play scenario in the terminal. Typed lines stand in for speech,
the reply model answers as the scenario's persona and the conversation is
scored when it ends. Nothing is synthesized and no progress is recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		// Log output would draw over the alternate screen.
		ctrl, closeFn, err := app.NewRehearsal(cmd.Context(), opts, logger.Nop())
		if err != nil {
			return err
		}
		defer closeFn()

		scenario, _ := cmd.Flags().GetString("scenario")
		ageVerified, _ := cmd.Flags().GetBool("age-verified")
		return tui.Run(ctrl, tui.Options{ScenarioID: scenario, AgeVerified: ageVerified})
	},
}

func init() {
	rehearseCmd.Flags().StringP("scenario", "s", "", "Scenario ID to start directly (default: pick from a list)")
	rehearseCmd.Flags().Bool("age-verified", false, "Confirm you are 18 or older to unlock restricted scenarios")
}
