package tablecache

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/couchcryptid/alert-risk-dashboard/internal/adapter/csvfile"
)

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch invalidates cached cities whenever their data file under dir
// changes. It blocks until ctx is cancelled.
func (c *Cache) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	c.logger.Info("watching city data", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("city data watcher error", "error", err)
		}
	}
}

func (c *Cache) handleEvent(event fsnotify.Event) {
	if event.Op&changeOps == 0 {
		return
	}
	city, ok := csvfile.CityFromPath(event.Name)
	if !ok {
		return
	}
	if c.Invalidate(city) {
		c.metrics.CacheEvictions.WithLabelValues("file_changed").Inc()
		c.logger.Info("city table invalidated", "city", city, "op", event.Op.String())
	}
}
