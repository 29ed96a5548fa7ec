package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the XP leaderboard, or one learner's simulations with --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		if userID, _ := cmd.Flags().GetString("user"); userID != "" {
			u, err := s.UserRepo().Get(ctx, userID)
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			fmt.Printf("%s  level %d  %d XP  streak %d\n", u.Username, u.Level, u.XP, u.Streak)
			fmt.Println()

			records, err := s.SimulationRepo().ListByUser(ctx, userID, limit)
			if err != nil {
				return fmt.Errorf("list simulations: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("No simulations yet.")
				return nil
			}
			fmt.Printf("%-19s  %-24s  %5s  %5s  %6s\n", "Started", "Scenario", "Turns", "Score", "Secs")
			fmt.Println(strings.Repeat("─", 68))
			for _, r := range records {
				score := "-"
				if r.Ended {
					score = fmt.Sprint(r.Score)
				}
				fmt.Printf("%-19s  %-24s  %5d  %5s  %6d\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					truncate(r.ScenarioID, 24), len(r.Conversation), score, r.DurationSecs)
			}
			return nil
		}

		entries, err := s.UserRepo().Leaderboard(ctx, limit)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
		total, err := s.UserRepo().Count(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No learners yet.")
			return nil
		}

		fmt.Printf("%-4s  %-24s  %6s  %5s  %6s\n", "Rank", "Username", "XP", "Level", "Streak")
		fmt.Println(strings.Repeat("─", 54))
		for i, e := range entries {
			fmt.Printf("%-4d  %-24s  %6d  %5d  %6d\n", i+1, truncate(e.Username, 24), e.XP, e.Level, e.Streak)
		}
		fmt.Println(strings.Repeat("─", 54))
		fmt.Printf("%d learners\n", total)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 20, "Number of rows to show")
	statsCmd.Flags().String("user", "", "Show one learner's profile and simulation history")
}
