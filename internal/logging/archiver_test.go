package logging

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"users-api/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string]int64
	uploads  []string
	lookups  []string
	failKeys map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]int64{}, failKeys: map[string]bool{}}
}

func (f *fakeStore) UploadFile(ctx context.Context, localPath string, opts storage.UploadOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[opts.Key] {
		return "", errors.New("upload refused")
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return "", err
	}
	f.objects[opts.Key] = info.Size()
	f.uploads = append(f.uploads, opts.Key)
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (f *fakeStore) ObjectSizes(ctx context.Context, bucket, prefix string, keys []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, keys...)
	out := map[string]int64{}
	for _, k := range keys {
		if size, ok := f.objects[k]; ok {
			out[k] = size
		}
	}
	return out, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestArchiver(dir string, store storage.Service) *Archiver {
	now := time.Date(2025, time.May, 10, 8, 0, 0, 0, time.UTC)
	return NewArchiver(ArchiverConfig{
		Dir:    dir,
		Bucket: "logs-bucket",
		Prefix: "/users-api/",
		Logger: quietLogger(),
		Now:    func() time.Time { return now },
	}, store)
}

func TestArchiveOnceShipsPastDaysOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "info-2025-05-09.log", "{}\n")
	writeFile(t, dir, "error-2025-05-01.log", "{}\n{}\n")
	writeFile(t, dir, "info-2025-05-10.log", "{}\n")
	writeFile(t, dir, "notes.txt", "keep me")

	store := newFakeStore()
	n, err := newTestArchiver(dir, store).ArchiveOnce(context.Background())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 archived files, got %d", n)
	}

	sort.Strings(store.uploads)
	want := []string{"users-api/error-2025-05-01.log", "users-api/info-2025-05-09.log"}
	if len(store.uploads) != 2 || store.uploads[0] != want[0] || store.uploads[1] != want[1] {
		t.Fatalf("unexpected uploads %v", store.uploads)
	}

	for _, name := range []string{"info-2025-05-10.log", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to stay: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "info-2025-05-09.log")); !os.IsNotExist(err) {
		t.Fatalf("expected archived file removed, got %v", err)
	}
}

func TestArchiveOnceSkipsUploadWhenAlreadyRemote(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "warning-2025-05-08.log", "{}\n")

	store := newFakeStore()
	store.objects["users-api/warning-2025-05-08.log"] = 3

	n, err := newTestArchiver(dir, store).ArchiveOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one archived file, got %d (%v)", n, err)
	}
	if len(store.uploads) != 0 {
		t.Fatalf("expected no upload, got %v", store.uploads)
	}
	if len(store.lookups) != 1 || store.lookups[0] != "users-api/warning-2025-05-08.log" {
		t.Fatalf("expected lookup of the closed file only, got %v", store.lookups)
	}
}

func TestArchiveOnceKeepsFileWhenUploadFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "error-2025-05-07.log", "{}\n")

	store := newFakeStore()
	store.failKeys["users-api/error-2025-05-07.log"] = true

	n, err := newTestArchiver(dir, store).ArchiveOnce(context.Background())
	if err == nil {
		t.Fatal("expected upload error")
	}
	if n != 0 {
		t.Fatalf("expected nothing archived, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "error-2025-05-07.log")); err != nil {
		t.Fatalf("expected file kept: %v", err)
	}
}

func TestArchiveOnceMissingDir(t *testing.T) {
	n, err := newTestArchiver(filepath.Join(t.TempDir(), "absent"), newFakeStore()).ArchiveOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got %d (%v)", n, err)
	}
}
