package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/tldr/domain/model"
)

const payload = "id;name\n1;alice\n2;bob\n"

func compressed(t *testing.T, compressionType model.CompressionType, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := newCompressWriter(&buf, compressionType)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readAll(t *testing.T, fsys FileSystem, path string) string {
	t.Helper()
	rc, err := fsys.Open(path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestOS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.csv")
	require.NoError(t, os.WriteFile(plain, []byte(payload), 0o600))
	gz := filepath.Join(dir, "data.csv.gz")
	require.NoError(t, os.WriteFile(gz, compressed(t, model.CompressionGZ, payload), 0o600))

	fsys := OS()

	t.Run("exists", func(t *testing.T) {
		t.Parallel()
		assert.True(t, fsys.Exists(plain))
		assert.True(t, fsys.Exists(gz))
		assert.False(t, fsys.Exists(filepath.Join(dir, "missing.csv")))
		assert.False(t, fsys.Exists(dir), "directories are not files")
	})

	t.Run("open plain", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, payload, readAll(t, fsys, plain))
	})

	t.Run("open decompresses", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, payload, readAll(t, fsys, gz))
	})

	t.Run("open missing", func(t *testing.T) {
		t.Parallel()
		_, err := fsys.Open(filepath.Join(dir, "missing.csv"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestFromFS(t *testing.T) {
	t.Parallel()

	fsys := FromFS(fstest.MapFS{
		"a.csv":          {Data: []byte(payload)},
		"dir/b.csv.zst":  {Data: compressed(t, model.CompressionZSTD, payload)},
		"dir/c.csv.xz":   {Data: compressed(t, model.CompressionXZ, payload)},
		"dir/broken.gz":  {Data: []byte("not gzip")},
		"dir/nested/d.x": {Data: []byte("x")},
	})

	assert.True(t, fsys.Exists("a.csv"))
	assert.True(t, fsys.Exists("./a.csv"))
	assert.True(t, fsys.Exists("dir/b.csv.zst"))
	assert.False(t, fsys.Exists("dir"))
	assert.False(t, fsys.Exists("../a.csv"))
	assert.False(t, fsys.Exists("/a.csv"))

	assert.Equal(t, payload, readAll(t, fsys, "./a.csv"))
	assert.Equal(t, payload, readAll(t, fsys, "dir/b.csv.zst"))
	assert.Equal(t, payload, readAll(t, fsys, "dir/c.csv.xz"))

	_, err := fsys.Open("dir/broken.gz")
	assert.Error(t, err)

	_, err = fsys.Open("../a.csv")
	assert.Error(t, err)
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	for _, c := range []model.CompressionType{
		model.CompressionNone, model.CompressionGZ, model.CompressionXZ, model.CompressionZSTD,
	} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()
			data := compressed(t, c, payload)
			r, cleanup, err := Decompress(bytes.NewReader(data), c)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, cleanup())
			assert.Equal(t, payload, string(got))
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		_, _, err := Decompress(bytes.NewReader(nil), model.CompressionType(42))
		assert.Error(t, err)
	})
}
