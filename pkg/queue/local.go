package queue

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"docustream/pkg/ignore"
	"docustream/pkg/logging"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LoadOptions controls LoadPaths.
type LoadOptions struct {
	Ignore       ignore.Matcher // Optional; paths are matched relative to each root.
	MaxFileBytes int64          // Files larger than this are skipped. 0 means no limit.
	WarnBinary   bool           // Log a warning for binary-looking files (text output).
}

// LoadPaths reads files and directories from disk into q, in the order
// given. Directories are walked in lexical order. Files inside a directory
// are named by their slash path relative to that directory, so the same
// basename from two subdirectories does not collide.
//
// Every skipped file is logged. Per-file failures are aggregated into the
// returned error and do not stop the walk.
func LoadPaths(q *Queue, paths []string, opts LoadOptions, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	var errs error

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resolve %s: %w", p, err))
			continue
		}
		info, err := os.Stat(absPath)
		if err != nil {
			logger.Warn("Path does not exist or cannot be accessed", zap.String("path", absPath), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("stat %s: %w", p, err))
			continue
		}

		if !info.IsDir() {
			errs = multierr.Append(errs, addLocal(q, absPath, filepath.Base(absPath), info, opts, logger))
			continue
		}

		logger.Debug("Walking directory", zap.String("dir", absPath))
		walkErr := filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
				return nil
			}
			rel, _ := filepath.Rel(absPath, path)
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}

			if d.IsDir() {
				if opts.Ignore != nil && opts.Ignore.MatchesPath(rel+"/") {
					logger.Debug("Skipping ignored directory", zap.String("dir", rel))
					return filepath.SkipDir
				}
				return nil
			}
			if opts.Ignore != nil && opts.Ignore.MatchesPath(rel) {
				logger.Debug("Skipping ignored file", zap.String("file", rel))
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				logger.Warn("Failed to stat file", zap.String("file", path), zap.Error(err))
				return nil
			}
			errs = multierr.Append(errs, addLocal(q, path, rel, fi, opts, logger))
			return nil
		})
		errs = multierr.Append(errs, walkErr)
	}
	return errs
}

func addLocal(q *Queue, path, name string, info fs.FileInfo, opts LoadOptions, logger *zap.Logger) error {
	if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
		logger.Warn("Skipping file over size limit",
			zap.String("file", path),
			zap.Int64("sizeBytes", info.Size()),
			zap.Int64("maxBytes", opts.MaxFileBytes))
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read file", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("read %s: %w", path, err)
	}

	f := NewFile(name, content, path)
	if opts.WarnBinary && LooksBinary(f) {
		logger.Warn("Binary file queued for text output; content will be decoded lossily", zap.String("file", name))
	}
	if err := q.Add(f); err != nil {
		return err
	}
	return nil
}
