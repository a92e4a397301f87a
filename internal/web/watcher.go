package web

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchTemplates re-parses the template sets whenever a file in the
// templates directory changes. It blocks until the context is cancelled.
func (s *Server) WatchTemplates(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfg.Site.TemplatesDir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.ReloadTemplates(); err != nil {
				s.logger.Error("template reload failed", zap.String("file", event.Name), zap.Error(err))
				continue
			}
			s.logger.Info("templates reloaded", zap.String("file", event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("template watcher error", zap.Error(err))
		}
	}
}
