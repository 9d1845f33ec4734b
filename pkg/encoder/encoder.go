// Package encoder turns user supplied image files into inline payloads for
// model requests.
package encoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/agri-assistant/internal/utils"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// ErrInvalidDataURL is returned when a string is not a base64 data URL
var ErrInvalidDataURL = errors.New("invalid data URL")

// Source is anything that can hand out the image bytes together with the
// declared media type.
type Source interface {
	Open() (io.ReadCloser, error)
	MediaType() string
}

// File is an image selected by the user, held in memory
type File struct {
	Name string
	Type string
	Data []byte
}

// Open returns a reader over the file contents
func (f *File) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// MediaType returns the declared media type of the file
func (f *File) MediaType() string {
	return f.Type
}

// Size returns the file size in bytes
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// Read loads an image from r. An empty mediaType is resolved from the file
// name, then from the content itself.
func Read(name, mediaType string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", name, err)
	}
	if mediaType == "" {
		mediaType = utils.MediaTypeFromFilename(name)
	}
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return &File{Name: name, Type: mediaType, Data: data}, nil
}

// ReadFile loads an image from disk
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	return Read(filepath.Base(path), "", f)
}

// Encode reads src and returns its contents base64 encoded together with the
// declared media type. The payload carries no data URL prefix.
func Encode(src Source) (types.InlineImage, error) {
	rc, err := src.Open()
	if err != nil {
		return types.InlineImage{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return types.InlineImage{}, fmt.Errorf("failed to read image: %w", err)
	}

	dataURL := "data:" + src.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(data)
	return types.InlineImage{
		Data:     StripDataURL(dataURL),
		MIMEType: src.MediaType(),
	}, nil
}

// StripDataURL drops a leading "data:...," header and returns the payload.
// Strings without a data URL header are returned unchanged.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ParseDataURL splits a base64 data URL into an inline payload
func ParseDataURL(s string) (types.InlineImage, error) {
	if !strings.HasPrefix(s, "data:") {
		return types.InlineImage{}, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return types.InlineImage{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}

	header := s[len("data:"):i]
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return types.InlineImage{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURL)
	}
	// drop parameters such as ;charset=...
	if j := strings.IndexByte(mediaType, ';'); j >= 0 {
		mediaType = mediaType[:j]
	}

	payload := s[i+1:]
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return types.InlineImage{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	return types.InlineImage{Data: payload, MIMEType: mediaType}, nil
}

// Decode converts an inline payload back into a File
func Decode(name string, img types.InlineImage) (*File, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return &File{Name: name, Type: img.MIMEType, Data: data}, nil
}
