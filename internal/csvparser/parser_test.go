package csvparser

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestParse_PreservesColumnOrder(t *testing.T) {
	path := writeFile(t, "Foo__mdt.csv", []byte("DeveloperName,Label,Value__c\nBar,unused, 7 \n\nBaz,\"quoted, label\",8\n"))

	data, err := Parse(path, Settings{})
	require.NoError(t, err)

	assert.Equal(t, []string{"DeveloperName", "Label", "Value__c"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"DeveloperName", "Label", "Value__c"}, data.Rows[0].Columns())

	v, _ := data.Rows[0].Get("Value__c")
	assert.Equal(t, "7", v, "values are trimmed")
	v, _ = data.Rows[1].Get("Label")
	assert.Equal(t, "quoted, label", v)
	assert.Equal(t, path, data.SourceFile)
}

func TestParse_RaggedRows(t *testing.T) {
	path := writeFile(t, "a.csv", []byte("A,B,C\n1\n1,2,3,4\n"))

	data, err := Parse(path, Settings{})
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)

	c, ok := data.Rows[0].Get("C")
	assert.True(t, ok)
	assert.Equal(t, "", c)
	assert.Equal(t, 3, data.Rows[1].Len(), "cells beyond the header are dropped")
}

func TestParse_BlankHeadersAreNamed(t *testing.T) {
	path := writeFile(t, "a.csv", []byte("A,,C\n1,2,3\n"))

	data, err := Parse(path, Settings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Column_2", "C"}, data.Headers)
}

func TestParse_Encodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		raw      []byte
	}{
		{"utf-8 with BOM", "utf-8", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name\nCafé\n")...)},
		{"windows-1252", "windows-1252", []byte("Name\nCaf\xe9\n")},
		{"latin1", "iso-8859-1", []byte("Name\nCaf\xe9\n")},
		{"utf-16 with BOM", "utf-16", []byte{0xFF, 0xFE, 'N', 0, 'a', 0, 'm', 0, 'e', 0, '\n', 0, 'C', 0, 'a', 0, 'f', 0, 0xE9, 0, '\n', 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "enc.csv", tt.raw)

			data, err := Parse(path, Settings{Encoding: tt.encoding})
			require.NoError(t, err)
			assert.Equal(t, []string{"Name"}, data.Headers)
			require.Len(t, data.Rows, 1)
			v, _ := data.Rows[0].Get("Name")
			assert.Equal(t, "Café", v)
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.csv", []byte("Name\nCaf\xe9\n"))

	_, err := Parse(path, Settings{Encoding: "utf-8"})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestParse_Failures(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.csv"), Settings{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := writeFile(t, "empty.csv", []byte("\n\n"))
	_, err = Parse(empty, Settings{})
	assert.Error(t, err)
}

func TestParseFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Foo__mdt.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"DeveloperName", "Label"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Bar", "unused"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	data, err := ParseFile(path, Settings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"DeveloperName", "Label"}, data.Headers)
	require.Len(t, data.Rows, 1)
	v, _ := data.Rows[0].Get("DeveloperName")
	assert.Equal(t, "Bar", v)
}

func TestWrite_UnionOfColumns(t *testing.T) {
	rows := []types.Row{
		types.NewRow([]string{"Name", "A"}, []string{"one", "1"}),
		types.NewRow([]string{"Name", "B"}, []string{"two, too", "2"}),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, rows))

	assert.Equal(t, "Name,A,B\none,1,\n\"two, too\",,2\n", buf.String())
}

func TestWrite_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"Name", "Field__c"}, nil))

	assert.Equal(t, "Name,Field__c\n", buf.String())
}

func TestWrite_HeadersLeadRowColumns(t *testing.T) {
	rows := []types.Row{types.NewRow([]string{"B", "Name"}, []string{"2", "one"})}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"Name", "A"}, rows))

	assert.Equal(t, "Name,A,B\none,,2\n", buf.String())
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := []types.Row{types.NewRow([]string{"Name", "Value__c"}, []string{"Bar", "x"})}

	require.NoError(t, WriteFile(path, []string{"Name"}, rows))

	data, err := Parse(path, Settings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Value__c"}, data.Headers)
	assert.Equal(t, rows, data.Rows)
}
