package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/metadata-deployer/internal/csvparser"
	"github.com/ginjaninja78/metadata-deployer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(pairs ...string) types.Row {
	var r types.Row
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func TestTransformer_Apply(t *testing.T) {
	tests := []struct {
		name     string
		tr       Transformer
		in       types.Row
		columns  []string
		wantName string
	}{
		{
			name:     "rename keeps position and drops label",
			tr:       Transformer{RemoveLabel: true, RenameDeveloperName: true},
			in:       row("DeveloperName", "Bar", "Label", "x", "Value__c", "1"),
			columns:  []string{"Name", "Value__c"},
			wantName: "Bar",
		},
		{
			name:     "missing developer name gets sentinel",
			tr:       Transformer{RenameDeveloperName: true},
			in:       row("Label", "x"),
			columns:  []string{"Label", "Name"},
			wantName: NameNotFound,
		},
		{
			name:     "sentinel overwrites an existing name",
			tr:       Transformer{RenameDeveloperName: true},
			in:       row("Name", "Existing"),
			columns:  []string{"Name"},
			wantName: NameNotFound,
		},
		{
			name:     "developer name replaces an existing name column",
			tr:       Transformer{RenameDeveloperName: true},
			in:       row("Name", "Old", "DeveloperName", "New"),
			columns:  []string{"Name"},
			wantName: "New",
		},
		{
			name:    "switches off pass rows through",
			tr:      Transformer{},
			in:      row("DeveloperName", "Bar", "Label", "x"),
			columns: []string{"DeveloperName", "Label"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.tr.Apply([]types.Row{tt.in})
			require.Len(t, out, 1)
			assert.Equal(t, tt.columns, out[0].Columns())
			if tt.wantName != "" {
				v, _ := out[0].Get(ColumnName)
				assert.Equal(t, tt.wantName, v)
			}
		})
	}
}

func TestTransformer_RemoveLabelAbsentIsNoop(t *testing.T) {
	out := Transformer{RemoveLabel: true}.Apply([]types.Row{row("A", "1")})
	assert.Equal(t, []string{"A"}, out[0].Columns())
}

func TestTransformer_FixImportFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Foo__mdt.csv")
	require.NoError(t, os.WriteFile(src, []byte("DeveloperName,Label,Value__c\nBar,unused,1\n,blank,2\n"), 0644))

	tr := Transformer{RemoveLabel: true, RenameDeveloperName: true}
	written, rows, err := tr.FixImportFile(src, filepath.Join(dir, "out", "Foo__mdt.xlsx"), csvparser.Settings{})
	require.Error(t, err, "missing destination directory is reported")
	assert.Empty(t, written)
	assert.Nil(t, rows)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0755))
	written, rows, err = tr.FixImportFile(src, filepath.Join(dir, "out", "Foo__mdt.xlsx"), csvparser.Settings{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "Foo__mdt.csv"), written)
	assert.Equal(t, []string{"Bar", ""}, Names(rows))

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, "Name,Value__c\nBar,1\n,2\n", string(data))
}

func TestTransformer_ApplyHeaders(t *testing.T) {
	tr := Transformer{RemoveLabel: true, RenameDeveloperName: true}
	assert.Equal(t, []string{"Name", "Field__c"}, tr.ApplyHeaders([]string{"DeveloperName", "Label", "Field__c"}))
	assert.Equal(t, []string{"Field__c", "Name"}, tr.ApplyHeaders([]string{"Field__c"}))
	assert.Equal(t, []string{"DeveloperName", "Label"}, Transformer{}.ApplyHeaders([]string{"DeveloperName", "Label"}))
}

func TestTransformer_FixImportFileHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Foo__mdt.csv")
	require.NoError(t, os.WriteFile(src, []byte("DeveloperName,Label,Field__c\n"), 0644))

	tr := Transformer{RemoveLabel: true, RenameDeveloperName: true}
	written, rows, err := tr.FixImportFile(src, filepath.Join(dir, "fixed.csv"), csvparser.Settings{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, "Name,Field__c\n", string(data))
}

func TestTypeFromFileName(t *testing.T) {
	assert.Equal(t, "Foo__mdt", TypeFromFileName(filepath.Join("input", "Foo__mdt.csv")))
	assert.Equal(t, "Foo__mdt", TypeFromFileName("Foo__mdt.part2.csv"))
	assert.Equal(t, "Foo__mdt", TypeFromFileName("Foo__mdt"))
}
