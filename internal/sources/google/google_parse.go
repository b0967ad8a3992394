package google

import (
	"fmt"
	"strings"

	"salesengine/internal/sources"
)

// parseValues converts a values matrix (as returned by the Sheets API) into
// rows keyed by the header row. Numbers arrive unformatted, so a price cell
// may be a float64 rather than a string.
func parseValues(values [][]interface{}) ([]sources.Row, error) {
	matrix := make([][]string, len(values))
	for i, row := range values {
		matrix[i] = toStrings(row)
	}
	return sources.FromMatrix(matrix)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
