package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/client"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

var (
	codeNoteFile string
	codeAgeYears int
)

// NewCodeCmd creates the code command, which submits an operative note to a
// running server for procedural CPT/ICD-10-PCS coding.
func NewCodeCmd(logger logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Extract procedural codes from an operative note",
		Long:  "Send an operative note to the server's coding pipeline and print the resulting code bundle.",
		RunE:  runCode,
	}

	cmd.Flags().StringVarP(&codeNoteFile, "file", "f", "", "path to a file containing the operative note (default: read stdin)")
	cmd.Flags().IntVar(&codeAgeYears, "age", 0, "patient age in years, for pediatric sedation rules (0 = unknown)")

	return cmd
}

func runCode(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Client == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "no API client available; check --server or config")
	}

	noteText, err := readNoteText()
	if err != nil {
		return err
	}
	if strings.TrimSpace(noteText) == "" {
		return errors.InvalidParam("operative note is empty")
	}

	req := &client.CodeRequest{NoteText: noteText}
	if codeAgeYears > 0 {
		req.AgeYears = &codeAgeYears
	}

	bundle, err := cliCtx.Client.Coding().Code(cmd.Context(), req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "coding request failed")
	}

	if strings.ToLower(cliCtx.OutputFormat) == "json" {
		return printJSON(cmd, bundle)
	}

	printCodeBundle(cmd, cliCtx, bundle)
	return nil
}

func readNoteText() (string, error) {
	if codeNoteFile != "" {
		data, err := os.ReadFile(codeNoteFile)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read note file")
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read note from stdin")
	}
	return string(data), nil
}

func printCodeBundle(cmd *cobra.Command, cliCtx *CLIContext, b *client.CodeBundle) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Codes:")
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Code", "Type", "Modifiers"})
	for _, c := range b.PrimaryCPTs {
		table.Append([]string{c, "primary CPT", strings.Join(b.Modifiers[c], ",")})
	}
	for _, c := range b.AddOnCPTs {
		table.Append([]string{c, "add-on CPT", strings.Join(b.Modifiers[c], ",")})
	}
	for _, c := range b.HCPCS {
		table.Append([]string{c, "HCPCS", ""})
	}
	for _, c := range b.ICD10PCS {
		table.Append([]string{c, "ICD-10-PCS", ""})
	}
	table.Render()

	if len(b.Suppressed) > 0 {
		fmt.Fprintln(out, "\nSuppressed:")
		for _, s := range b.Suppressed {
			fmt.Fprintf(out, "  %s (%s)\n", s.Code, s.Reason)
		}
	}

	for _, w := range b.Warnings {
		warn := "! " + w
		if !cliCtx.NoColor {
			warn = color.YellowString(warn)
		}
		fmt.Fprintln(out, warn)
	}

	for _, g := range b.DocumentationGaps {
		gap := "gap: " + g
		if !cliCtx.NoColor {
			gap = color.RedString(gap)
		}
		fmt.Fprintln(out, gap)
	}

	fmt.Fprintf(out, "\nkb_version: %s  low_confidence: %v\n", b.KBVersion, b.LowConfidence)
}
