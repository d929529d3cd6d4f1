package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readZip returns the entries of a zip archive in order, by name.
func readZip(t *testing.T, data []byte) ([]string, map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	contents := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		names = append(names, f.Name)
		contents[f.Name] = string(b)
	}
	return names, contents
}

func TestBuilder(t *testing.T) {
	modified := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	b := NewBuilder(modified)

	big := bytes.Repeat([]byte("تقرير سنوي "), 1000)
	require.NoError(t, b.Append("التقرير.pdf", big))
	require.NoError(t, b.AppendText("README.txt", "hello"))

	data, err := b.Finalize()
	require.NoError(t, err)
	assert.Less(t, len(data), len(big)/10, "content should be deflated")

	names, contents := readZip(t, data)
	assert.Equal(t, []string{"التقرير.pdf", "README.txt"}, names)
	assert.Equal(t, string(big), contents["التقرير.pdf"])
	assert.Equal(t, "hello", contents["README.txt"])

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method)
		assert.True(t, f.Modified.Equal(modified), "entry %s modified = %v", f.Name, f.Modified)
	}

	t.Run("append after finalize", func(t *testing.T) {
		assert.ErrorIs(t, b.Append("late.pdf", []byte("x")), ErrFinalized)
		_, err := b.Finalize()
		assert.ErrorIs(t, err, ErrFinalized)
	})
}

func TestBuilder_empty(t *testing.T) {
	data, err := NewBuilder(time.Time{}).Finalize()
	require.NoError(t, err)
	names, _ := readZip(t, data)
	assert.Empty(t, names)
}
