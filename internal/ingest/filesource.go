package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/metrics"
	"github.com/good-yellow-bee/logpulse/internal/models"
)

// FileSourceOptions configures a FileSource.
type FileSourceOptions struct {
	// FromStart reads the existing file content before following it.
	FromStart bool
	// PollInterval is the stat fallback for filesystems where fsnotify
	// events are unreliable.
	PollInterval time.Duration
}

// DefaultFileSourceOptions returns the default file source options.
func DefaultFileSourceOptions() FileSourceOptions {
	return FileSourceOptions{
		PollInterval: time.Second,
	}
}

// FileSource follows a JSON-lines file, one LogRecord per line, and feeds
// every record to an Ingester. It survives rotation by rename and by
// copytruncate.
type FileSource struct {
	path     string
	ingester Ingester
	opts     FileSourceOptions
	logger   logrus.FieldLogger

	file   *os.File
	reader *bufio.Reader
	size   int64
	lineNo int64
}

// NewFileSource creates a file source for path.
func NewFileSource(path string, ingester Ingester, opts FileSourceOptions, logger logrus.FieldLogger) *FileSource {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultFileSourceOptions().PollInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	path = filepath.Clean(path)
	return &FileSource{
		path:     path,
		ingester: ingester,
		opts:     opts,
		logger:   logger.WithFields(logrus.Fields{"component": "filesource", "path": path}),
	}
}

// Path returns the followed file path.
func (s *FileSource) Path() string {
	return s.path
}

// Run follows the file until ctx is cancelled. A missing file is waited
// for.
func (s *FileSource) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so rotation (remove + create) is noticed.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	if err := s.open(!s.opts.FromStart); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	defer s.closeFile()

	s.logger.Info("file source started")
	s.readLines(ctx)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("file source stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("watcher error")
		case <-ticker.C:
			s.checkForChanges(ctx)
		}
	}
}

func (s *FileSource) open(seekEnd bool) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	s.file = file
	s.size = 0
	if seekEnd {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			s.file = nil
			return fmt.Errorf("failed to seek to end: %w", err)
		}
		s.size = offset
	}
	s.reader = bufio.NewReader(file)
	return nil
}

func (s *FileSource) closeFile() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.reader = nil
	}
}

func (s *FileSource) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}

	switch {
	case event.Has(fsnotify.Write):
		if s.file == nil {
			s.reopen(ctx)
			return
		}
		s.readLines(ctx)
	case event.Has(fsnotify.Create):
		s.reopen(ctx)
	}
	// Remove and rename wait for the matching create.
}

func (s *FileSource) checkForChanges(ctx context.Context) {
	info, err := os.Stat(s.path)
	if err != nil {
		return
	}
	if s.file == nil {
		s.reopen(ctx)
		return
	}

	switch newSize := info.Size(); {
	case newSize < s.size:
		s.handleTruncation(ctx)
	case newSize > s.size:
		s.readLines(ctx)
	}
}

// reopen switches to a freshly created file and reads it from the start.
func (s *FileSource) reopen(ctx context.Context) {
	s.closeFile()
	if err := s.open(false); err != nil {
		s.logger.WithError(err).Debug("reopen failed, will retry")
		return
	}
	s.logger.Info("file reopened")
	s.readLines(ctx)
}

func (s *FileSource) handleTruncation(ctx context.Context) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		s.logger.WithError(err).Warn("seek after truncation failed")
		return
	}
	s.logger.Info("file truncated, reading from start")
	s.reader = bufio.NewReader(s.file)
	s.size = 0
	s.readLines(ctx)
}

func (s *FileSource) readLines(ctx context.Context) {
	if s.reader == nil {
		return
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(line) > 0 {
					// Partial line: rewind so it is read whole next time.
					if _, err := s.file.Seek(-int64(len(line)), io.SeekCurrent); err == nil {
						s.reader = bufio.NewReader(s.file)
					}
				}
				return
			}
			s.logger.WithError(err).Warn("read error")
			return
		}

		s.size += int64(len(line))
		s.lineNo++
		s.handleLine(ctx, line)
	}
}

func (s *FileSource) handleLine(ctx context.Context, line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}

	var rec models.LogRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		metrics.IngestRejectedTotal.WithLabelValues("file").Inc()
		s.logger.WithError(err).WithField("line", s.lineNo).Warn("skipping malformed line")
		return
	}

	if _, err := s.ingester.Ingest(WithOrigin(ctx, "file"), &rec); err != nil {
		s.logger.WithError(err).WithField("line", s.lineNo).Warn("skipping rejected record")
	}
}
