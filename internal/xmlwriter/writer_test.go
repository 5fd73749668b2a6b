package xmlwriter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Foo.R%d", i)
	}
	return out
}

func TestBatch(t *testing.T) {
	tests := []struct {
		n, max    int
		wantSizes []int
	}{
		{0, 1000, nil},
		{1, 1000, []int{1}},
		{1000, 1000, []int{1000}},
		{1001, 1000, []int{1000, 1}},
		{2500, 1000, []int{1000, 1000, 500}},
		{5, 2, []int{2, 2, 1}},
		{3, 0, []int{3}},
		{3, -4, []int{3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.max), func(t *testing.T) {
			in := ids(tt.n)
			batches := Batch(in, tt.max)

			var sizes []int
			var joined []string
			for _, b := range batches {
				sizes = append(sizes, len(b))
				joined = append(joined, b...)
			}
			assert.Equal(t, tt.wantSizes, sizes)
			if tt.n > 0 {
				assert.Equal(t, in, joined, "order preserving and lossless")
			}
		})
	}
}

func TestBatch_AppendDoesNotClobber(t *testing.T) {
	in := ids(4)
	batches := Batch(in, 2)
	_ = append(batches[0], "extra")
	assert.Equal(t, "Foo.R2", in[2])
}

func TestRenderPackage(t *testing.T) {
	got := string(RenderPackage([]string{"Foo.Bar", "Foo.Baz"}, TypeCustomMetadata))

	want := "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\r\n" +
		"<Package xmlns=\"http://soap.sforce.com/2006/04/metadata\">\r\n" +
		"\t<types>\r\n" +
		"\t\t<members>Foo.Bar</members>\r\n" +
		"\t\t<members>Foo.Baz</members>\r\n" +
		"\t\t<name>CustomMetadata</name>\r\n" +
		"\t</types>\r\n" +
		"\t<version>58.0</version>\r\n" +
		"</Package>\r\n"
	assert.Equal(t, want, got)
}

type fakeCleaner struct {
	paths []string
	fail  string
}

func (c *fakeCleaner) Fix(path string) (bool, error) {
	c.paths = append(c.paths, path)
	if filepath.Base(path) == c.fail {
		return false, errors.New("permission denied")
	}
	return true, nil
}

func newBuilder(t *testing.T, max int, cleaner Cleaner) (*Builder, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return &Builder{
		RecordsDir:  filepath.Join("proj", "customMetadata"),
		PackagesDir: t.TempDir(),
		MaxMembers:  max,
		Cleaner:     cleaner,
		Log:         logrus.NewEntry(logger),
	}, hook
}

func TestBuilder_Build(t *testing.T) {
	cleaner := &fakeCleaner{fail: "Foo.B.md-meta.xml"}
	b, hook := newBuilder(t, 2, cleaner)

	// Leftovers from a larger earlier run.
	for _, stale := range []string{"package_0.xml", "package_7.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(b.PackagesDir, stale), []byte("old"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(b.PackagesDir, "keep.xml"), []byte("x"), 0644))

	files := []string{"Foo.A.md-meta.xml", "Foo.B.md-meta.xml", "Foo.C.md-meta.xml"}
	pkgs, err := b.Build(files)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("proj", "customMetadata", "Foo.A.md-meta.xml"),
		filepath.Join("proj", "customMetadata", "Foo.B.md-meta.xml"),
		filepath.Join("proj", "customMetadata", "Foo.C.md-meta.xml"),
	}, cleaner.paths)

	require.Len(t, pkgs, 2)
	assert.Equal(t, "package_0.xml", pkgs[0].FileName)
	assert.Equal(t, []string{"Foo.A", "Foo.B"}, pkgs[0].Members)
	assert.Equal(t, "package_1.xml", pkgs[1].FileName)
	assert.Equal(t, []string{"Foo.C"}, pkgs[1].Members)

	for _, p := range pkgs {
		data, err := os.ReadFile(p.Path)
		require.NoError(t, err)
		assert.Equal(t, p.Content, data)
	}

	listed, err := ListPackages(b.PackagesDir)
	require.NoError(t, err)
	assert.Equal(t, []string{pkgs[0].Path, pkgs[1].Path}, listed)
	assert.FileExists(t, filepath.Join(b.PackagesDir, "keep.xml"))

	var errorsLogged int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorsLogged++
			assert.Equal(t, "Foo.B.md-meta.xml", e.Data["file"])
		}
	}
	assert.Equal(t, 1, errorsLogged)
}

func TestBuilder_BuildEmpty(t *testing.T) {
	b, _ := newBuilder(t, 0, nil)
	pkgs, err := b.Build(nil)
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestListPackages_NumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"package_10.xml", "package_2.xml", "package_0.xml", "package_x.xml", "other.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	paths, err := ListPackages(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"package_0.xml", "package_2.xml", "package_10.xml"}, names)
}

func TestRecordFixer_Fix(t *testing.T) {
	record := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<CustomMetadata xmlns="http://soap.sforce.com/2006/04/metadata" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`,
		`    <label>Bar</label>`,
		`    <values>`,
		`        <field>undefined</field>`,
		`        <value xsi:type="xsd:string">undefined</value>`,
		`    </values>`,
		`    <values>`,
		`        <field>Value__c</field>`,
		`        <value xsi:type="xsd:string">undefined</value>`,
		`    </values>`,
		`    <values><field>undefined</field><value xsi:type="xsd:string">undefined</value></values>`,
		`</CustomMetadata>`,
		``,
	}, "\n")
	want := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<CustomMetadata xmlns="http://soap.sforce.com/2006/04/metadata" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`,
		`    <label>Bar</label>`,
		`    <values>`,
		`        <field>Value__c</field>`,
		`        <value xsi:type="xsd:string">undefined</value>`,
		`    </values>`,
		`</CustomMetadata>`,
		``,
	}, "\n")

	path := filepath.Join(t.TempDir(), "Foo.Bar.md-meta.xml")
	require.NoError(t, os.WriteFile(path, []byte(record), 0644))

	changed, err := RecordFixer{}.Fix(path)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	changed, err = RecordFixer{}.Fix(path)
	require.NoError(t, err)
	assert.False(t, changed, "a clean file is left alone")
}

func TestRecordFixer_Missing(t *testing.T) {
	_, err := RecordFixer{}.Fix(filepath.Join(t.TempDir(), "gone.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
