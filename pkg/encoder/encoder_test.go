package encoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestEncodeJPEG(t *testing.T) {
	input := append([]byte(nil), jpegHeader...)
	f := &File{Name: "soil.jpg", Type: "image/jpeg", Data: input}

	got, err := Encode(f)
	require.NoError(t, err)

	assert.Equal(t, base64.StdEncoding.EncodeToString(jpegHeader), got.Data)
	assert.Equal(t, "image/jpeg", got.MIMEType)
	assert.False(t, strings.HasPrefix(got.Data, "data:"))
	assert.NotContains(t, got.Data, ",")
	assert.Equal(t, jpegHeader, input, "input bytes must not be mutated")
}

type failingSource struct{ openErr, readErr error }

func (s failingSource) Open() (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(errReader{s.readErr}), nil
}

func (s failingSource) MediaType() string { return "image/png" }

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestEncodePropagatesIOErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	_, err := Encode(failingSource{openErr: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = Encode(failingSource{readErr: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "QUJD", StripDataURL("data:image/png;base64,QUJD"))
	assert.Equal(t, "QUJD", StripDataURL("QUJD"))
}

func TestParseDataURL(t *testing.T) {
	img, err := ParseDataURL("data:image/webp;base64,QUJD")
	require.NoError(t, err)
	assert.Equal(t, "QUJD", img.Data)
	assert.Equal(t, "image/webp", img.MIMEType)
	assert.Equal(t, "data:image/webp;base64,QUJD", img.DataURL())

	for _, bad := range []string{
		"QUJD",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,***",
	} {
		_, err := ParseDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func TestReadResolvesMediaType(t *testing.T) {
	f, err := Read("bug.png", "", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MediaType())

	f, err = Read("upload", "", bytes.NewReader(jpegHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.MediaType())

	f, err = Read("bug.png", "image/webp", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", f.MediaType(), "declared type wins")
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.jpeg")
	require.NoError(t, os.WriteFile(path, jpegHeader, 0o644))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sample.jpeg", f.Name)
	assert.Equal(t, "image/jpeg", f.Type)
	assert.Equal(t, int64(len(jpegHeader)), f.Size())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	f := &File{Name: "a.jpg", Type: "image/jpeg", Data: jpegHeader}
	img, err := Encode(f)
	require.NoError(t, err)

	back, err := Decode("a.jpg", img)
	require.NoError(t, err)
	assert.Equal(t, f, back)
}
