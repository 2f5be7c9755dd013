package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterWritesPreambleAndRows(t *testing.T) {
	data := Dataset{
		Preamble: []string{"Audit Session Report - 2026-10-14", "Auditor: Sari"},
		Headers:  []string{"Asset Name", "Barcode"},
		Rows: []map[string]string{
			{"Asset Name": `Laptop "Pro", 14`, "Barcode": "BC-1"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	expected := "Audit Session Report - 2026-10-14\nAuditor: Sari\n\nAsset Name,Barcode\n\"Laptop \"\"Pro\"\", 14\",BC-1\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterWithoutPreamble(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Headers: []string{"a"}, Rows: []map[string]string{{"a": "1"}}})
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRenders(t *testing.T) {
	out, err := NewLandscapePDFExporter().Render(Dataset{
		Preamble: []string{"Auditor: Sari"},
		Headers:  []string{"Asset Name", "Status in Audit"},
		Rows:     []map[string]string{{"Asset Name": "Kursi", "Status in Audit": "FOUND"}},
	}, "Audit Session Report")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
