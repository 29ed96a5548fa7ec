package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse scenarios, tracks, levels and achievements",
}

func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	cat, err := catalog.Load(flagOrEnv(cmd, "catalog", "KALIKE_CATALOG"), flagOrEnv(cmd, "tracks", "KALIKE_TRACKS"))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

var catalogScenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List simulation scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s  %-30s  %-5s  %s\n", "ID", "Title", "18+", "Bonuses")
		fmt.Println(strings.Repeat("─", 80))
		for _, sc := range cat.Scenarios.All() {
			restricted := ""
			if sc.AgeRestricted {
				restricted = "yes"
			}
			fmt.Printf("%-24s  %-30s  %-5s  %d\n", sc.ID, truncate(sc.Title, 30), restricted, len(sc.Bonuses))
		}
		return nil
	},
}

var catalogTracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List lesson tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("lessons")
		for _, t := range cat.Library.Tracks() {
			fmt.Printf("%-20s  %-28s  %-12s  %d lessons\n", t.ID, truncate(t.Name, 28), t.Difficulty, len(t.Lessons))
			if !verbose {
				continue
			}
			for _, ls := range t.Lessons {
				fmt.Printf("    %-18s  %-22s  %s\n", ls.ID, ls.Type, ls.Title)
			}
		}
		return nil
	},
}

var catalogLevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List levels and achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		engine := cat.Engine
		fmt.Println("Levels")
		fmt.Println(strings.Repeat("─", 20))
		levels := engine.Levels()
		for lv := 1; lv <= levels.MaxLevel(); lv++ {
			xp, _ := levels.Threshold(lv)
			fmt.Printf("%3d  %8d XP\n", lv, xp)
		}
		fmt.Println()
		fmt.Println("Achievements")
		fmt.Println(strings.Repeat("─", 72))
		for _, a := range engine.Achievements() {
			fmt.Printf("%-22s  %-26s  +%d XP\n", a.ID, truncate(a.Name, 26), a.RewardXP)
		}
		return nil
	},
}

func init() {
	catalogTracksCmd.Flags().BoolP("lessons", "l", false, "Also list each track's lessons")

	catalogCmd.AddCommand(catalogScenariosCmd)
	catalogCmd.AddCommand(catalogTracksCmd)
	catalogCmd.AddCommand(catalogLevelsCmd)
}
