package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const (
	DefaultMaxSize = 5 * 1024 * 1024
	DefaultBackups = 3
)

// RotatingWriter is a size capped log file. When a write pushes it past
// maxSize the file is shifted to path.1, path.1 to path.2 and so on, keeping
// at most backups old files.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
	backups int
}

func NewRotatingWriter(path string, maxSize int64, backups int) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if backups < 0 {
		backups = 0
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return &RotatingWriter{file: f, path: path, size: size, maxSize: maxSize, backups: backups}, nil
}

// Setup sends the standard logger to stdout and a rotating file at path.
func Setup(path string) (*RotatingWriter, error) {
	rw, err := NewRotatingWriter(path, DefaultMaxSize, DefaultBackups)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	if w.backups == 0 {
		os.Remove(w.path)
	} else {
		os.Remove(w.backupName(w.backups))
		for i := w.backups - 1; i >= 1; i-- {
			os.Rename(w.backupName(i), w.backupName(i+1))
		}
		os.Rename(w.path, w.backupName(1))
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("reopen log file: %w", err)
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *RotatingWriter) backupName(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
