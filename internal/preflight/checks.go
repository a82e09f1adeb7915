// Package preflight validates the environment before the daemon starts
// processing: directories exist, required binaries resolve, and the audio
// staging volume has headroom.
package preflight

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// minFreeBytes is the smallest acceptable free space on the audio volume.
// A long video's extracted audio can run to hundreds of megabytes.
const minFreeBytes = 1 << 30

// Run executes all preflight checks and returns the first failure.
func Run(cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "ensure directories", "", err)
	}

	if err := checkBinaries(cfg); err != nil {
		return err
	}

	if err := checkDiskSpace(cfg.Paths.AudioDir); err != nil {
		return err
	}

	logger.Info("preflight checks passed",
		logging.String("audio_dir", cfg.Paths.AudioDir))
	return nil
}

func checkBinaries(cfg *config.Config) error {
	required := []string{cfg.YtdlpBinary(), cfg.WhisperBinary()}
	if cfg.Punctuation.Enabled {
		required = append(required, cfg.Punctuation.Binary)
	}

	missing := deps.Missing(deps.CheckBinaries(required...))
	if len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "check binaries",
			"missing required binaries: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func checkDiskSpace(dir string) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "statfs", dir, err)
	}

	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return services.Wrap(services.ErrConfiguration, "preflight", "disk space",
			fmt.Sprintf("%s has %d MiB free, need at least %d MiB", dir, free>>20, minFreeBytes>>20), nil)
	}
	return nil
}
