package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/catalog"
	"github.com/kalike-app/kalike/internal/lessons"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Import lesson tracks from spreadsheets",
}

var lessonsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Merge spreadsheet lessons into a tracks YAML file",
	Long: `Read lesson rows from an Excel workbook or CSV file and merge them into the
current tracks (--tracks, or the embedded set). Lessons with an existing
track and lesson ID are replaced. The result is written to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := lessons.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.HeaderRow, _ = cmd.Flags().GetInt("header-row")
		cfg.Separator, _ = cmd.Flags().GetString("separator")

		tracks, result, err := lessons.ImportTracks(cfg)
		if err != nil {
			return fmt.Errorf("import %s: %w", cfg.FilePath, err)
		}

		tracksPath := flagOrEnv(cmd, "tracks", "KALIKE_TRACKS")
		base, err := catalog.Load(flagOrEnv(cmd, "catalog", "KALIKE_CATALOG"), tracksPath)
		if err != nil {
			return fmt.Errorf("load current tracks: %w", err)
		}
		merged, created, updated, err := base.Library.Merge(tracks)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = tracksPath
		}
		if out == "" {
			out = "tracks.yaml"
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if !dryRun {
			if err := writeTracks(out, merged); err != nil {
				return err
			}
		}

		fmt.Printf("Rows processed:  %d\n", result.TotalProcessed)
		fmt.Printf("Rows skipped:    %d\n", result.Skipped)
		fmt.Printf("Lessons added:   %d\n", created)
		fmt.Printf("Lessons updated: %d\n", updated)
		fmt.Printf("Tracks:          %d (%d lessons)\n", len(merged.Tracks()), merged.LessonCount())
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
		if dryRun {
			fmt.Println("Dry run, nothing written.")
		} else {
			fmt.Println("Wrote", out)
		}
		return nil
	},
}

var lessonsTemplateCmd = &cobra.Command{
	Use:   "template <file.xlsx>",
	Short: "Write an import workbook with the expected columns and an example row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		example := lessons.TemplateRow(map[string]string{
			"track_id":            "basics",
			"track_name":          "Kannada Basics",
			"difficulty":          "beginner",
			"lesson_id":           "basics_greeting",
			"title":               "Say hello",
			"type":                "repeat_after_me",
			"kannada_phrase":      "ನಮಸ್ಕಾರ",
			"english_translation": "Hello",
			"pronunciation_guide": "na-mas-kaa-ra",
		})
		if err := lessons.WriteTemplate(args[0], example); err != nil {
			return err
		}
		fmt.Println("Wrote", args[0])
		return nil
	},
}

func writeTracks(path string, lib *lessons.Library) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := lessons.EncodeTracks(f, lib.Tracks()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	lessonsImportCmd.Flags().String("sheet", "Sheet1", "Worksheet to read (ignored for CSV)")
	lessonsImportCmd.Flags().Int("header-row", 1, "Row holding the column names")
	lessonsImportCmd.Flags().String("separator", "|", "Separator for list cells such as options")
	lessonsImportCmd.Flags().StringP("out", "o", "", "Output YAML (default: --tracks, or tracks.yaml)")
	lessonsImportCmd.Flags().Bool("dry-run", false, "Report without writing")

	lessonsCmd.AddCommand(lessonsImportCmd)
	lessonsCmd.AddCommand(lessonsTemplateCmd)
}
