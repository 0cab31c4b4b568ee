package watcher

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/retrieval"
)

// SnapshotSetter receives a rebuilt ranking snapshot. *retrieval.Retriever implements it.
type SnapshotSetter interface {
	SetSnapshot(s *retrieval.Snapshot)
}

// RankingReloader returns a ReloadFunc that re-reads the config at path, rebuilds the ranking
// snapshot and hands it to target. Invalid configuration leaves target untouched.
// When w is non-nil its file set follows the reloaded profiles_file.
func RankingReloader(path string, target SnapshotSetter, w *ConfigWatcher, logger *zap.Logger) ReloadFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() error {
		cfg, _, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("reload %s: %w", path, err)
		}
		snap, err := config.BuildSnapshot(cfg, logger)
		if err != nil {
			return fmt.Errorf("reload %s: %w", path, err)
		}
		target.SetSnapshot(snap)
		if w != nil {
			if err := w.SetFiles([]string{path, cfg.Ranking.ProfilesFile}); err != nil {
				logger.Warn("failed to watch profiles file", zap.String("path", cfg.Ranking.ProfilesFile), zap.Error(err))
			}
		}
		return nil
	}
}
