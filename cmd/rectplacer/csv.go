package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/rectplacer/pkg/rect"
)

var csvOutput string

var csvCmd = &cobra.Command{
	Use:   "csv [file]",
	Short: "Export the valid definitions of a file as CSV",
	Long:  "Write highlighted,lx,ly,lz,x,y,z rows for every accepted line. Rejected lines are reported on stderr and skipped.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCSV,
}

func init() {
	csvCmd.Flags().StringVarP(&csvOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(csvCmd)
}

func runCSV(cmd *cobra.Command, args []string) error {
	result, err := parseFile(args[0])
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		slog.Warn("skipping invalid line", "file", args[0], "line", e.Line, "reason", e.Message)
	}

	var w io.Writer = os.Stdout
	if csvOutput != "" {
		f, err := os.Create(csvOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", csvOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := rect.WriteCSV(w, result.Rects); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
