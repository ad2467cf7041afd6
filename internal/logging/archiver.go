package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"users-api/internal/storage"
)

var logFilePattern = regexp.MustCompile(`^(info|warning|error)-(\d{4}-\d{2}-\d{2})\.log$`)

// ArchiverConfig describes where closed log files are shipped.
type ArchiverConfig struct {
	Dir      string
	Bucket   string
	Prefix   string
	Interval time.Duration
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Archiver uploads log files of past days to object storage and removes the
// local copy once the upload succeeded. The current day's files are left alone.
type Archiver struct {
	cfg   ArchiverConfig
	store storage.Service
}

func NewArchiver(cfg ArchiverConfig, store storage.Service) *Archiver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return &Archiver{cfg: cfg, store: store}
}

// Run archives once immediately and then on every interval until ctx is done.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		if n, err := a.ArchiveOnce(ctx); err != nil {
			a.cfg.Logger.WithError(err).Warn("archive log files")
		} else if n > 0 {
			a.cfg.Logger.WithField("files", n).Info("archived log files")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ArchiveOnce ships every closed log file and returns how many were archived.
// Files already present remotely with the same size are only removed locally.
func (a *Archiver) ArchiveOnce(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(a.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read log dir: %w", err)
	}

	today := a.cfg.Now().UTC().Format(dayLayout)
	var closed []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := logFilePattern.FindStringSubmatch(entry.Name())
		if m == nil || m[2] >= today {
			continue
		}
		closed = append(closed, entry)
	}
	if len(closed) == 0 {
		return 0, nil
	}

	keys := make([]string, len(closed))
	for i, entry := range closed {
		keys[i] = a.objectKey(entry.Name())
	}
	remote, err := a.store.ObjectSizes(ctx, a.cfg.Bucket, a.cfg.Prefix, keys)
	if err != nil {
		return 0, err
	}

	var (
		archived int
		errs     []error
	)
	for _, entry := range closed {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		local := filepath.Join(a.cfg.Dir, entry.Name())
		key := a.objectKey(entry.Name())

		info, err := entry.Info()
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", local, err))
			continue
		}
		if size, ok := remote[key]; !ok || size != info.Size() {
			if _, err := a.store.UploadFile(ctx, local, storage.UploadOptions{Bucket: a.cfg.Bucket, Key: key}); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if err := os.Remove(local); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", local, err))
			continue
		}
		archived++
	}
	return archived, errors.Join(errs...)
}

func (a *Archiver) objectKey(name string) string {
	if a.cfg.Prefix == "" {
		return name
	}
	return path.Join(a.cfg.Prefix, name)
}
