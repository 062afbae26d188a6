package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one parsed circuit row: the typed fields the calculation service
// needs plus the full row retained verbatim as JSON.
type Row struct {
	StringID   string
	LengthPosM float64
	LengthNegM float64
	Raw        json.RawMessage
}

// Required columns for a circuit CSV. Extra columns are preserved in the raw
// payload and passed through to the calculation service untouched.
var requiredColumns = []string{"string_id", "length_pos_m", "length_neg_m"}

// Parse reads and validates a circuit CSV, returning parsed rows, validation
// warnings, and any fatal error. Warnings are non-fatal (unexpected values,
// skipped rows, duplicate IDs); errors are fatal (missing required columns,
// unreadable file).
func Parse(reader io.Reader) (rows []Row, warnings []string, err error) {
	rows = make([]Row, 0)
	warnings = make([]string, 0)

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields

	headers, err := csvReader.Read()
	if err != nil {
		if err == io.EOF {
			return rows, warnings, fmt.Errorf("CSV file is empty")
		}
		return rows, warnings, fmt.Errorf("failed to read CSV headers: %v", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(h))
	}

	if missing := missingColumns(headers); len(missing) > 0 {
		return rows, warnings, fmt.Errorf("header validation failed: missing required columns %v", missing)
	}

	seen := make(map[string]bool)
	lineNum := 2 // Start at line 2 since line 1 is headers

	for {
		csvRow, err := csvReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return rows, warnings, fmt.Errorf("line %d: failed to read CSV row: %v", lineNum, err)
		}

		rowMap := make(map[string]string)
		for i, header := range headers {
			if i < len(csvRow) {
				rowMap[header] = strings.TrimSpace(csvRow[i])
			} else {
				rowMap[header] = ""
			}
		}

		row, rowErrs := parseRow(rowMap)
		if len(rowErrs) > 0 {
			for _, re := range rowErrs {
				warnings = append(warnings, fmt.Sprintf("row %d skipped: %s", lineNum, re))
			}
			lineNum++
			continue
		}

		if seen[row.StringID] {
			warnings = append(warnings, fmt.Sprintf("row %d: duplicate string_id %q", lineNum, row.StringID))
		}
		seen[row.StringID] = true

		raw, err := json.Marshal(rowMap)
		if err != nil {
			lineNum++
			continue
		}
		row.Raw = raw

		rows = append(rows, row)
		lineNum++
	}

	return rows, warnings, nil
}

func missingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// parseRow validates one row's typed fields. Lengths must be positive
// numbers; the producer rejects zero-length runs the same way.
func parseRow(rowMap map[string]string) (Row, []string) {
	var errs []string

	row := Row{StringID: rowMap["string_id"]}
	if row.StringID == "" {
		errs = append(errs, "string_id is empty")
	}

	parseLength := func(col string) float64 {
		v, err := strconv.ParseFloat(rowMap[col], 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s %q is not a number", col, rowMap[col]))
			return 0
		}
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %v", col, v))
		}
		return v
	}
	row.LengthPosM = parseLength("length_pos_m")
	row.LengthNegM = parseLength("length_neg_m")

	return row, errs
}
