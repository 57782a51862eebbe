package stream

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// readMetadata fills a track from its tags, falling back to the file name when the
// file carries no title.
func readMetadata(path string, src source) *domain.MusicTrack {
	track := &domain.MusicTrack{
		FilePath:   path,
		FileFormat: formatOf(path),
		SampleRate: src.SampleRate(),
		Duration:   sourceDuration(src),
	}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			track.Title = strings.TrimSpace(m.Title())
			track.Artist = strings.TrimSpace(m.Artist())
			track.Album = strings.TrimSpace(m.Album())
		}
		_ = f.Close()
	}

	if track.Title == "" {
		base := filepath.Base(path)
		track.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return track
}

func sourceDuration(src source) time.Duration {
	frames := src.Frames()
	if frames <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(src.SampleRate())
}
