package util

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// DefaultMaxImageBytes bounds a single encoded image read from a stream.
const DefaultMaxImageBytes int64 = 64 << 20

// ErrLimitExceeded is returned when a reader holds more than the allowed number of bytes.
var ErrLimitExceeded = errors.New("read limit exceeded")

// ImageFile represents an encoded image read into memory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
}

// ReadAllLimited reads r until EOF, failing once more than limit bytes are seen.
//
// Arguments:
// - r: The reader to drain.
// - limit: The maximum number of bytes accepted. Zero or less means DefaultMaxImageBytes.
//
// Returns:
// - []byte: The bytes read.
// - error: ErrLimitExceeded if r holds more than limit bytes, or the read error.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrLimitExceeded, "input larger than %d bytes", limit)
	}
	return data, nil
}

// ReadImageFile reads an encoded image file, refusing files larger than limit.
//
// Arguments:
// - path: The image file path.
// - limit: The maximum file size in bytes. Zero or less means DefaultMaxImageBytes.
//
// Returns:
// - ImageFile: The path and raw bytes.
// - error: Error if the file cannot be opened or read, or exceeds limit.
func ReadImageFile(path string, limit int64) (ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageFile{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	data, err := ReadAllLimited(f, limit)
	if err != nil {
		return ImageFile{}, errors.Wrap(err, path)
	}
	return ImageFile{Path: path, Data: data}, nil
}
