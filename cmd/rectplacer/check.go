package main

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/philipparndt/rectplacer/pkg/rect"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a definition file and report every rejected line",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	filename := args[0]
	result, err := parseFile(filename)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	reportErrors(out, filename, result.Errors)

	highlighted := 0
	for _, d := range result.Rects {
		if d.Highlighted {
			highlighted++
		}
	}
	summary := fmt.Sprintf("%d lines, %d rects (%d highlighted), %d errors",
		result.Lines, len(result.Rects), highlighted, len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Fprintln(out, out.String(summary).Foreground(out.Color("3")))
		return fmt.Errorf("%s has %d invalid lines", filename, len(result.Errors))
	}
	fmt.Fprintln(out, out.String(summary).Foreground(out.Color("2")))
	return nil
}

// parseFile reads and parses a definition file
func parseFile(filename string) (rect.Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return rect.Result{}, fmt.Errorf("failed to read definitions: %w", err)
	}
	return rect.Parse(string(data)), nil
}

// reportErrors prints one entry per rejected line in file:line form
func reportErrors(out *termenv.Output, filename string, errs []rect.ParseError) {
	for _, e := range errs {
		loc := out.String(fmt.Sprintf("%s:%d:", filename, e.Line)).Bold()
		msg := out.String(e.Message).Foreground(out.Color("1"))
		fmt.Fprintf(out, "%s %s\n", loc, msg)
		fmt.Fprintf(out, "    %s\n", e.Raw)
	}
}
