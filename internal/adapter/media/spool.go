package media

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// Spool stores uploaded clips between HTTP ingest and worker pickup. Both
// processes must mount the same directory.
type Spool struct {
	Dir string
}

func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("op=media.NewSpool: %w", err)
	}
	return &Spool{Dir: dir}, nil
}

// allowedTypes maps accepted upload MIME prefixes to the media kind.
var allowedTypes = map[string]domain.MediaKind{
	"video/": domain.MediaVideo,
	"audio/": domain.MediaAudio,
}

// Save sniffs the upload, rejects non-media content and writes the clip
// under a fresh ULID name. The detected kind and the stored path are
// returned; the caller owns eventual removal.
func (s *Spool) Save(r io.Reader) (string, domain.MediaKind, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", "", fmt.Errorf("op=media.Save sniff: %w", err)
	}
	mt := mimetype.Detect(header[:n])

	var kind domain.MediaKind
	for prefix, k := range allowedTypes {
		if strings.HasPrefix(mt.String(), prefix) {
			kind = k
			break
		}
	}
	if kind == "" {
		return "", "", fmt.Errorf("op=media.Save: unsupported content type %s: %w",
			mt.String(), domain.ErrInvalidArgument)
	}

	name := ulid.Make().String() + mt.Extension()
	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", "", fmt.Errorf("op=media.Save create: %w", err)
	}
	if _, err := f.Write(header[:n]); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", "", fmt.Errorf("op=media.Save write header: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", "", fmt.Errorf("op=media.Save write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("op=media.Save close: %w", err)
	}
	return path, kind, nil
}

// Remove deletes spooled files, tolerating already-gone entries. Derived
// artifacts (extracted WAVs, segments) are passed alongside the original.
func (s *Spool) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("spool remove failed", slog.String("path", p), slog.Any("error", err))
		}
	}
}

// SweepOlderThan deletes spooled files whose modification time predates the
// cutoff. Returns the number of files removed.
func (s *Spool) SweepOlderThan(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("op=media.SweepOlderThan: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
