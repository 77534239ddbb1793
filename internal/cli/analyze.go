package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/api/analysis"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/pipeline"
)

var (
	analyzeFile   string
	analyzeFormat string
)

var errNoCalls = errors.New("no call data to analyze")

// callOutcome is the result of one call in a batch.
type callOutcome struct {
	Index  int                    `json:"index"`
	CallID *string                `json:"call_id"`
	Result *domain.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze call logs from a JSON file",
	Long: `Analyze one call object or a list of call objects.

Each call has the /api/analyze-call shape:
  {"call_id": "...", "conversation": [{"role": "...", "content": "..."}]}

Calls are processed one after another. Invalid calls are reported and
skipped; the command fails if any call could not be analyzed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch analyzeFormat {
		case "text", "json":
		default:
			return fmt.Errorf("unknown format %q (want text or json)", analyzeFormat)
		}

		data, err := readInput(cmd.InOrStdin(), analyzeFile)
		if err != nil {
			return err
		}
		calls, err := splitCalls(data)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		outcomes := make([]callOutcome, 0, len(calls))
		failed := 0
		for i, raw := range calls {
			out := analyzeOne(cmd, a.analyzer, i+1, raw)
			if out.Error != "" {
				failed++
			}
			outcomes = append(outcomes, out)
		}

		w := cmd.OutOrStdout()
		if analyzeFormat == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcomes); err != nil {
				return err
			}
		} else {
			for _, out := range outcomes {
				printOutcome(w, out)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d calls failed", failed, len(outcomes))
		}
		return nil
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// splitCalls accepts a single call object or an array of them.
func splitCalls(data []byte) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("input is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	switch {
	case doc.IsArray():
		var calls []string
		doc.ForEach(func(_, value gjson.Result) bool {
			calls = append(calls, value.Raw)
			return true
		})
		if len(calls) == 0 {
			return nil, errNoCalls
		}
		return calls, nil
	case doc.IsObject():
		return []string{doc.Raw}, nil
	default:
		return nil, errNoCalls
	}
}

func analyzeOne(cmd *cobra.Command, analyzer *pipeline.Analyzer, index int, raw string) callOutcome {
	out := callOutcome{Index: index}

	req, err := analysis.DecodeCallLog([]byte(raw))
	if err != nil {
		_, resp := analysis.Describe(err)
		out.Error = fmt.Sprintf("Call %d: %s", index, resp.Detail)
		return out
	}
	out.CallID = req.CallID

	result, err := analyzer.Run(cmd.Context(), pipeline.Input{
		ConversationText: analysis.FlattenConversation(req.Conversation),
		CallID:           req.CallID,
		RequestID:        uuid.NewString(),
	})
	if err != nil {
		_, resp := analysis.Describe(err)
		out.Error = fmt.Sprintf("Call %d: %s", index, resp.Detail)
		return out
	}
	out.Result = result
	return out
}

func printOutcome(w io.Writer, out callOutcome) {
	bold := color.New(color.Bold)
	label := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed)

	title := fmt.Sprintf("Call %d", out.Index)
	if out.CallID != nil {
		title += " (" + *out.CallID + ")"
	}
	bold.Fprintln(w, title)

	if out.Error != "" {
		red.Fprintf(w, "  %s\n\n", out.Error)
		return
	}

	r := out.Result
	fmt.Fprintf(w, "  %s %s (%s)\n", label("Purpose:"), r.Purpose.Purpose, r.Purpose.Confidence)
	if r.Purpose.Summary != "" {
		fmt.Fprintf(w, "  %s %s\n", label("Summary:"), r.Purpose.Summary)
	}
	fmt.Fprintf(w, "  %s %s\n", label("Failure:"), r.FailureReason.ReasonCategory)
	fmt.Fprintf(w, "  %s %s\n", label("Explanation:"), r.FailureReason.Explanation)
	if len(r.FailureReason.Evidence) > 0 {
		fmt.Fprintf(w, "  %s\n", label("Evidence:"))
		for _, e := range r.FailureReason.Evidence {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
	fmt.Fprintf(w, "  %s %s\n", label("Recommendation:"), r.FailureReason.Recommendation)
	fmt.Fprintf(w, "  %s %s\n", label("Goal:"), r.ActionPlan.Goal)
	for i, step := range r.ActionPlan.Steps {
		fmt.Fprintf(w, "    %d. %s\n", i+1, strings.TrimSpace(step))
	}
	fmt.Fprintf(w, "  %s %s\n", label("Owner:"), r.ActionPlan.Owner)
	fmt.Fprintf(w, "  %s %s\n\n", label("Success criteria:"), r.ActionPlan.SuccessCriteria)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", `call log JSON file ("-" for stdin)`)
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "o", "text", "output format: text or json")
	_ = analyzeCmd.MarkFlagRequired("file")
}
