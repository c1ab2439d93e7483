package alerting

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Reloader accepts a replacement rule set.
type Reloader interface {
	ReloadRules(rules []*Rule) error
}

// RuleWatcher reloads a rules file whenever it changes on disk. A file
// that fails to parse or validate leaves the current rules in place.
type RuleWatcher struct {
	path     string
	target   Reloader
	logger   logrus.FieldLogger
	debounce time.Duration
	onReload func(rules []*Rule, err error)
}

// NewRuleWatcher creates a watcher for the rules file at path.
func NewRuleWatcher(path string, target Reloader, logger logrus.FieldLogger) (*RuleWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RuleWatcher{
		path:     abs,
		target:   target,
		logger:   logger.WithFields(logrus.Fields{"component": "rules-watcher", "path": abs}),
		debounce: 250 * time.Millisecond,
	}, nil
}

// Run watches until ctx is cancelled. The parent directory is watched so
// editors that replace the file by rename are picked up.
func (w *RuleWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("rules watcher error")
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *RuleWatcher) reload() {
	rules, err := LoadRulesFromFile(w.path)
	if err == nil {
		err = w.target.ReloadRules(rules)
	}
	if err != nil {
		w.logger.WithError(err).Error("rules reload failed, keeping current rules")
	} else {
		w.logger.WithField("rules", len(rules)).Info("rules reloaded")
	}
	if w.onReload != nil {
		w.onReload(rules, err)
	}
}
