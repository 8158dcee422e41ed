package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/client"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

var (
	querySessionID   string
	queryTopK        int
	queryUseReranker bool
)

// NewQueryCmd creates the query command, which asks a clinical question
// against a running server and prints the cited answer.
func NewQueryCmd(logger logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask an interventional pulmonology question",
		Long:  "Send a clinical question to the server and print the grounded, cited answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&querySessionID, "session", "", "conversation session ID to thread history through")
	cmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of passages to retrieve (server default if 0)")
	cmd.Flags().BoolVar(&queryUseReranker, "rerank", true, "apply the cross-encoder reranker")

	return cmd
}

func runQuery(cmd *cobra.Command, question string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Client == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "no API client available; check --server or config")
	}

	resp, err := cliCtx.Client.Query().Ask(cmd.Context(), &client.AskRequest{
		Query:       question,
		SessionID:   querySessionID,
		TopK:        queryTopK,
		UseReranker: queryUseReranker,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "query failed")
	}

	if strings.ToLower(cliCtx.OutputFormat) == "json" {
		return printJSON(cmd, resp)
	}

	printAnswer(cmd, cliCtx, resp)
	return nil
}

func printAnswer(cmd *cobra.Command, cliCtx *CLIContext, resp *client.AskResponse) {
	out := cmd.OutOrStdout()

	if resp.IsEmergency {
		banner := "⚠ EMERGENCY: this question may describe an urgent clinical situation."
		if !cliCtx.NoColor {
			banner = color.New(color.FgRed, color.Bold).Sprint(banner)
		}
		fmt.Fprintln(out, banner)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, stripHTML(resp.AnswerHTML))
	fmt.Fprintln(out)

	for _, w := range resp.SafetyWarnings {
		warn := "! " + w
		if !cliCtx.NoColor {
			warn = color.YellowString(warn)
		}
		fmt.Fprintln(out, warn)
	}

	if len(resp.Citations) > 0 {
		fmt.Fprintln(out, "Sources:")
		table := tablewriter.NewWriter(out)
		table.Header([]string{"#", "Title", "Venue", "Year"})
		for i, c := range resp.Citations {
			table.Append([]string{fmt.Sprintf("%d", i+1), c.Title, c.Venue, fmt.Sprintf("%d", c.Year)})
		}
		table.Render()
	}

	confStr := fmt.Sprintf("confidence: %.2f  classification: %s  kb: %s", resp.Confidence, resp.Classification, resp.KBVersion)
	if resp.ReviewRequired {
		confStr += "  [clinician review recommended]"
	}
	fmt.Fprintln(out, confStr)
}

// stripHTML removes the small set of inline tags the answer synthesizer
// emits (<p>, <b>, <i>, <br>) so the CLI prints plain text.
func stripHTML(html string) string {
	replacer := strings.NewReplacer(
		"<p>", "", "</p>", "\n",
		"<br>", "\n", "<br/>", "\n",
		"<b>", "", "</b>", "",
		"<i>", "", "</i>", "",
	)
	return strings.TrimSpace(replacer.Replace(html))
}

