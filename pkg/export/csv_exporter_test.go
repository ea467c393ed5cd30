package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderStartsWithByteOrderMark(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"trn", "name"},
		Rows:    []map[string]string{{"trn": "1234567", "name": "Alice"}},
	})
	require.NoError(t, err)

	body := string(out)
	require.True(t, strings.HasPrefix(body, "\uFEFF"), "output must carry a UTF-8 BOM for Excel")
	assert.Equal(t, 1, strings.Count(body, "\uFEFF"))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(body, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "trn,name", lines[0])
	assert.Equal(t, "1234567,Alice", lines[1])
}

func TestCSVRenderMissingKeyIsEmptyCell(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"trn", "name", "category"},
		Rows:    []map[string]string{{"trn": "7654321"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "7654321,,\n")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
