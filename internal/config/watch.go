package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads configPath whenever it changes on disk and invokes onChange
// with the freshly loaded Config. It runs until stop is closed or the
// watcher itself fails to start; callers that don't want hot-reload (e.g.
// a config supplied purely via flags) simply never call Watch.
//
// A reload that fails validation is logged and skipped — the node keeps
// running on its last-known-good Config rather than crashing on a typo.
func Watch(configPath string, stop <-chan struct{}, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(configPath); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(configPath)
				if err != nil {
					slog.Warn("config: reload failed, keeping previous config", "path", configPath, "error", err)
					continue
				}
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config: watcher error", "error", err)
			}
		}
	}()

	return nil
}
