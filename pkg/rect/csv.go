package rect

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"highlighted", "lx", "ly", "lz", "x", "y", "z"}

// WriteCSV writes the definitions as CSV rows with a header line
func WriteCSV(w io.Writer, defs []Definition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, d := range defs {
		row := []string{
			strconv.FormatBool(d.Highlighted),
			formatFloat(d.Size.LX), formatFloat(d.Size.LY), formatFloat(d.Size.LZ),
			formatFloat(d.Pos.X), formatFloat(d.Pos.Y), formatFloat(d.Pos.Z),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
