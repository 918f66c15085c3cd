package deploy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Uploader publishes collected files. The S3 storage adapter satisfies it.
type Uploader interface {
	EnsureBucket(ctx context.Context) error
	PutFile(ctx context.Context, rel, localPath string) error
}

// CollectStaticStep gathers static files from several source directories
// into a single root, optionally mirroring them to object storage.
type CollectStaticStep struct {
	sources  []string
	root     string
	uploader Uploader
	log      *logger.Logger
}

// CollectStats summarizes one collection
type CollectStats struct {
	Copied     int
	Unmodified int
	Bytes      uint64
	Uploaded   int
	Files      []string
}

// NewCollectStaticStep creates the step. uploader may be nil.
func NewCollectStaticStep(sources []string, root string, uploader Uploader) *CollectStaticStep {
	return &CollectStaticStep{
		sources:  sources,
		root:     root,
		uploader: uploader,
		log:      logger.Get().With("component", "collectstatic"),
	}
}

func (s *CollectStaticStep) Name() string   { return "collectstatic" }
func (s *CollectStaticStep) Policy() Policy { return Fatal }

func (s *CollectStaticStep) Run(ctx context.Context, out io.Writer) error {
	stats, err := s.Collect(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d static files copied to '%s', %d unmodified.\n", stats.Copied, s.root, stats.Unmodified)
	fmt.Fprintf(out, "Collected %s in %d files.\n", humanize.Bytes(stats.Bytes), len(stats.Files))
	if s.uploader != nil {
		fmt.Fprintf(out, "Uploaded %d files to object storage.\n", stats.Uploaded)
	}
	return nil
}

// Collect copies files into the root. The first source providing a relative
// path wins; later duplicates are ignored.
func (s *CollectStaticStep) Collect(ctx context.Context) (*CollectStats, error) {
	if s.root == "" {
		return nil, errors.NewValidationError("static_root", "required", s.root)
	}
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve static root")
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, errors.Wrap(err, "create static root")
	}

	stats := &CollectStats{}
	seen := make(map[string]bool)

	for _, src := range s.sources {
		absSrc, err := filepath.Abs(src)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve static source %s", src)
		}
		if _, err := os.Stat(absSrc); errors.Is(err, fs.ErrNotExist) {
			s.log.Warnw("Static source directory does not exist", "path", src)
			continue
		}

		err = filepath.WalkDir(absSrc, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path == absRoot {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(absSrc, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] {
				s.log.Debugw("Ignoring duplicate static file", "path", rel, "source", src)
				return nil
			}
			seen[rel] = true

			size, copied, err := syncFile(path, filepath.Join(absRoot, filepath.FromSlash(rel)))
			if err != nil {
				return errors.Wrapf(err, "collect %s", rel)
			}
			if copied {
				stats.Copied++
			} else {
				stats.Unmodified++
			}
			stats.Bytes += uint64(size)
			stats.Files = append(stats.Files, rel)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk static source %s", src)
		}
	}

	if s.uploader != nil && len(stats.Files) > 0 {
		if err := s.uploader.EnsureBucket(ctx); err != nil {
			return nil, errors.Wrap(err, "ensure static bucket")
		}
		for _, rel := range stats.Files {
			local := filepath.Join(absRoot, filepath.FromSlash(rel))
			if err := s.uploader.PutFile(ctx, rel, local); err != nil {
				return nil, errors.Wrapf(err, "upload %s", rel)
			}
			stats.Uploaded++
		}
	}

	s.log.Infow("Static files collected",
		"copied", stats.Copied,
		"unmodified", stats.Unmodified,
		"bytes", stats.Bytes,
		"uploaded", stats.Uploaded,
	)
	return stats, nil
}

// syncFile copies src over dst unless both have the same size and digest.
// It returns the file size and whether a copy happened.
func syncFile(src, dst string) (int64, bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, false, err
	}

	if existing, err := os.Stat(dst); err == nil && existing.Size() == info.Size() {
		same, err := sameDigest(src, dst)
		if err != nil {
			return 0, false, err
		}
		if same {
			return info.Size(), false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, false, err
	}
	if err := copyFile(src, dst); err != nil {
		return 0, false, err
	}
	return info.Size(), true, nil
}

func sameDigest(a, b string) (bool, error) {
	da, err := fileDigest(a)
	if err != nil {
		return false, err
	}
	db, err := fileDigest(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".collect-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
