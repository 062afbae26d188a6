package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidFile(t *testing.T) {
	csv := `string_id,length_pos_m,length_neg_m,circuit_type
STR-001,120.5,118.0,dc_strings
STR-002,85.25,84.75,dc_strings
`
	rows, warnings, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 2)

	assert.Equal(t, "STR-001", rows[0].StringID)
	assert.Equal(t, 120.5, rows[0].LengthPosM)
	assert.Equal(t, 118.0, rows[0].LengthNegM)

	// Extra columns survive in the raw payload.
	var raw map[string]string
	require.NoError(t, json.Unmarshal(rows[0].Raw, &raw))
	assert.Equal(t, "dc_strings", raw["circuit_type"])
}

func TestParse_HeaderCaseInsensitive(t *testing.T) {
	csv := "String_ID,Length_Pos_M,Length_Neg_M\nSTR-001,10,12\n"
	rows, _, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "STR-001", rows[0].StringID)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	csv := "string_id,length_pos_m\nSTR-001,10\n"
	_, _, err := Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length_neg_m")
}

func TestParse_EmptyFile(t *testing.T) {
	_, _, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParse_BadRowsSkippedWithWarnings(t *testing.T) {
	csv := `string_id,length_pos_m,length_neg_m
STR-001,120.5,118.0
STR-002,not-a-number,84.75
STR-003,0,10
,5,5
STR-005,90,91
`
	rows, warnings, err := Parse(strings.NewReader(csv))
	require.NoError(t, err, "bad rows are warnings, not fatal")
	require.Len(t, rows, 2)
	assert.Equal(t, "STR-001", rows[0].StringID)
	assert.Equal(t, "STR-005", rows[1].StringID)

	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "not a number")
	assert.Contains(t, warnings[1], "must be positive")
	assert.Contains(t, warnings[2], "string_id is empty")
}

func TestParse_DuplicateStringIDWarns(t *testing.T) {
	csv := `string_id,length_pos_m,length_neg_m
STR-001,10,12
STR-001,11,13
`
	rows, warnings, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, rows, 2, "duplicates are kept, the producer decides how to treat them")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "duplicate string_id")
}

func TestParse_ShortRowPadded(t *testing.T) {
	csv := "string_id,length_pos_m,length_neg_m\nSTR-001,10\n"
	rows, warnings, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NotEmpty(t, warnings, "a short row is missing its negative length")
}
