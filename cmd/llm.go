package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/llm"
	"github.com/kalike-app/kalike/internal/store"
)

const stampLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.From = time.Now().Add(-since)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM events found.")
			return nil
		}

		tw := table(out)
		fmt.Fprintln(tw, "ID\tTime\tPurpose\tModel\tIn\tOut\tMs\tOK\t")
		for _, e := range events {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t\n",
				e.ID, e.Timestamp.Local().Format(stampLayout), e.Purpose, truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, mark(e.Success))
		}
		return tw.Flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Print the prompt and completion of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		out := cmd.OutOrStdout()
		tw := table(out)
		fmt.Fprintf(tw, "ID:\t%d\n", e.ID)
		fmt.Fprintf(tw, "Time:\t%s\n", e.Timestamp.Local().Format(stampLayout))
		fmt.Fprintf(tw, "Provider:\t%s\n", e.Provider)
		fmt.Fprintf(tw, "Model:\t%s\n", e.Model)
		fmt.Fprintf(tw, "Purpose:\t%s\n", e.Purpose)
		fmt.Fprintf(tw, "Tokens:\t%d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(tw, "Latency:\t%dms\n", e.LatencyMs)
		if e.ErrorMessage != "" {
			fmt.Fprintf(tw, "Error:\t%s\n", e.ErrorMessage)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		section(out, "REQUEST", e.RequestBody)
		section(out, "RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}

		tw := table(out)
		fmt.Fprintln(tw, "Purpose\tCalls\tFailed\tInput\tOutput\tAvg Ms\t")
		var calls, failed, in, outTok int
		for _, st := range byPurpose {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.0f\t\n",
				st.Purpose, st.Calls, st.Failures, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
			calls += st.Calls
			failed += st.Failures
			in += st.InputTokens
			outTok += st.OutputTokens
		}
		fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t%d\t\t\n", calls, failed, in, outTok)
		if err := tw.Flush(); err != nil {
			return err
		}

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		tw = table(out)
		fmt.Fprintln(tw, "Model\tCalls\tInput\tOutput\tCost (USD)\t")
		var total float64
		var unpriced []string
		for _, mu := range byModel {
			cost := "?"
			if price := llm.LookupCost(mu.Model); price != nil {
				c := price.Cost(mu.InputTokens, mu.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, mu.Model)
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t\n", truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
		}
		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(tw, "%s\t\t\t\t%s\t\n", label, formatCost(total))
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(unpriced) > 0 {
			fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func section(w io.Writer, title, body string) {
	rule := strings.Repeat("─", 60)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\n%s\n", rule, title, rule, strings.TrimRight(body, "\n"))
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose ("+llm.PurposeSimulationReply+" or "+llm.PurposePronunciation+")")
	llmListCmd.Flags().Duration("since", 0, "Only show calls newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
