package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile is an io.WriteCloser that rolls path over to path.1 .. path.N
// once the next write would push it past maxBytes.
type RotatingFile struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
}

// NewRotatingFile opens (or appends to) path. A maxBytes <= 0 disables rotation.
func NewRotatingFile(path string, maxBytes int64, maxBackups int) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &RotatingFile{
		path:       path,
		maxBytes:   maxBytes,
		maxBackups: maxBackups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", rf.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file %s: %w", rf.path, err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}

	if rf.maxBytes > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rf.file = nil

	if rf.maxBackups <= 0 {
		if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
		return rf.open()
	}

	// Oldest backup falls off the end.
	oldest := backupName(rf.path, rf.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", oldest, err)
	}
	for i := rf.maxBackups - 1; i >= 1; i-- {
		from := backupName(rf.path, i)
		if err := os.Rename(from, backupName(rf.path, i+1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate %s: %w", from, err)
		}
	}
	if err := os.Rename(rf.path, backupName(rf.path, 1)); err != nil {
		return fmt.Errorf("failed to rotate %s: %w", rf.path, err)
	}

	return rf.open()
}

// Close implements io.Closer.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}
