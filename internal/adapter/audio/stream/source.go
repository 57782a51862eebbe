package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// source is a decoded audio file producing interleaved float32 samples in [-1, 1].
type source interface {
	SampleRate() int
	Channels() int

	// Frames returns the total frame count, or -1 when unknown.
	Frames() int64

	// Read fills dst with interleaved samples and returns the number of samples
	// written, always a multiple of Channels. It returns io.EOF at the end.
	Read(dst []float32) (int, error)

	// SeekFrame moves the read position to the given frame.
	SeekFrame(frame int64) error

	Close() error
}

// formatOf returns the lower-case extension of path without the dot.
func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// openSource opens path with the decoder registered for its extension.
func openSource(path string) (source, error) {
	var open func(*os.File) (source, error)
	switch formatOf(path) {
	case "mp3":
		open = newMP3Source
	case "wav", "wave":
		open = newWAVSource
	case "ogg", "oga":
		open = newOggSource
	case "flac":
		open = newFLACSource
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, err
	}
	src, err := open(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		_ = src.Close()
		return nil, fmt.Errorf("%w: invalid stream header", domain.ErrUnsupportedFormat)
	}
	return src, nil
}

// SupportedFormats lists the extensions the engine can decode.
func SupportedFormats() []string {
	return []string{"mp3", "wav", "ogg", "flac"}
}
