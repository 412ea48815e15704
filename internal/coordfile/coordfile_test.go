package coordfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routekit/internal/geo"
)

func TestReadCSVWithHeader(t *testing.T) {
	in := "id,x,y\n1,0,0\n# comment\n2, 3.5, -4\n"
	got, err := Read(strings.NewReader(in), CSV)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{{ID: 1}, {ID: 2, X: 3.5, Y: -4}}, got)
}

func TestReadCSVBadRow(t *testing.T) {
	_, err := Read(strings.NewReader("1,0,0\n2,abc,1\n"), CSV)
	assert.ErrorContains(t, err, "line 2")
	_, err = Read(strings.NewReader("1,0\n"), CSV)
	assert.Error(t, err)
}

func TestReadJSON(t *testing.T) {
	got, err := Read(strings.NewReader(`[{"id":7,"x":1,"y":2}]`), JSON)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{{ID: 7, X: 1, Y: 2}}, got)
}

func TestReadFileAndFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"x":0,"y":0}]`), 0o600))
	assert.Equal(t, JSON, FormatFor(path))
	assert.Equal(t, CSV, FormatFor("pts.txt"))
	got, err := ReadFile(path, FormatFor(path))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = Read(strings.NewReader(""), Format("xml"))
	assert.Error(t, err)
}

func TestReadEmpty(t *testing.T) {
	got, err := Read(strings.NewReader(""), CSV)
	require.NoError(t, err)
	assert.Empty(t, got)
}
