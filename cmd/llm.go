package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the gateway request log",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent gateway calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No gateway calls recorded.")
			return nil
		}
		printTable(out, []string{"ID", "Time", "Purpose", "Cap", "Model", "In", "Out", "Ms", "OK"}, eventRows(events))
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the captured request and response of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
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
			fmt.Fprintln(out, "No gateway calls recorded.")
			return nil
		}

		fmt.Fprintln(out, "Usage by purpose")
		printTable(out, []string{"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg ms"}, purposeRows(byPurpose))

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Estimated cost (USD)")
			rows, unpriced := costRows(byModel)
			printTable(out, []string{"Model", "Calls", "Input", "Output", "Cost"}, rows)
			if len(unpriced) > 0 {
				fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
			}
		}
		return nil
	},
}

func eventRows(events []store.LLMRequestEvent) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Local().Format(timeLayout),
			e.Purpose,
			e.Capability,
			truncate(e.Model, 28),
			strconv.Itoa(e.InputTokens),
			strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			ok,
		})
	}
	return rows
}

func printEvent(w io.Writer, e *store.LLMRequestEvent) {
	printFields(w,
		field{"ID", strconv.FormatInt(e.ID, 10)},
		field{"Time", e.Timestamp.Local().Format(timeLayout)},
		field{"Capability", e.Capability},
		field{"Provider", e.Provider},
		field{"Model", e.Model},
		field{"Purpose", e.Purpose},
		field{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
		field{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
		field{"Success", strconv.FormatBool(e.Success)},
		field{"Error", e.ErrorMessage},
	)
	printBlock(w, "REQUEST", e.RequestBody)
	printBlock(w, "RESPONSE", e.ResponseBody)
}

// purposeRows renders per-purpose usage with a trailing total row.
func purposeRows(usage []store.PurposeUsage) [][]string {
	var total store.PurposeUsage
	rows := make([][]string, 0, len(usage)+1)
	for _, u := range usage {
		rows = append(rows, []string{
			u.Purpose,
			strconv.Itoa(u.Calls),
			strconv.Itoa(u.Failures),
			strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens),
			strconv.Itoa(u.InputTokens + u.OutputTokens),
			strconv.FormatInt(u.AvgLatencyMs, 10),
		})
		total.Calls += u.Calls
		total.Failures += u.Failures
		total.InputTokens += u.InputTokens
		total.OutputTokens += u.OutputTokens
	}
	return append(rows, []string{
		"TOTAL",
		strconv.Itoa(total.Calls),
		strconv.Itoa(total.Failures),
		strconv.Itoa(total.InputTokens),
		strconv.Itoa(total.OutputTokens),
		strconv.Itoa(total.InputTokens + total.OutputTokens),
		"",
	})
}

// costRows prices each model and returns the models with no known price.
// The total is marked partial when any model is unpriced.
func costRows(usage []store.ModelUsage) ([][]string, []string) {
	var (
		rows     [][]string
		unpriced []string
		sum      float64
	)
	for _, u := range usage {
		cost := "?"
		if price := llm.LookupCost(u.Model); price != nil {
			c := price.Cost(u.InputTokens, u.OutputTokens)
			sum += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		rows = append(rows, []string{
			truncate(u.Model, 32),
			strconv.Itoa(u.Calls),
			strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens),
			cost,
		})
	}
	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	return append(rows, []string{label, "", "", "", formatCost(sum)}), unpriced
}

// purposeHelp lists the purposes recorded in the request log.
var purposeHelp = strings.Join([]string{
	llm.PurposeRecognition, llm.PurposeDiagram, llm.PurposeDiagramVerify,
	llm.PurposeComparison, llm.PurposePractice, llm.PurposeSpeech,
}, ", ")

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose ("+purposeHelp+")")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
