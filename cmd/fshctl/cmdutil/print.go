package cmdutil

import (
	"fmt"
	"io"

	"github.com/NTD-LAB/FSH/internal/cli/output"
)

// PrintOutput renders data in the format selected by --output: as a table
// via renderer when empty is false, emptyMsg when empty is true and the
// format is table, or as JSON/YAML of data regardless of empty.
func PrintOutput(w io.Writer, data any, empty bool, emptyMsg string, renderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if empty {
			fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, renderer)
	}
}
