package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watchSettle is how long a burst of file events must be quiet before a
// single reload fires.
const watchSettle = 500 * time.Millisecond

// Watch blocks watching dir for changes to *.geojson files and calls onChange
// once per settled burst of edits. It returns when ctx is done or the watcher
// shuts down.
func Watch(ctx context.Context, dir string, log *logrus.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Infof("📂 watching %s for obstacle changes", dir)

	settle := time.NewTimer(watchSettle)
	if !settle.Stop() {
		<-settle.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".geojson" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("obstacle file changed: %s (%s)", filepath.Base(event.Name), event.Op)
			if pending && !settle.Stop() {
				<-settle.C
			}
			settle.Reset(watchSettle)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("⚠️  watcher error")

		case <-settle.C:
			if pending {
				pending = false
				onChange()
			}
		}
	}
}
