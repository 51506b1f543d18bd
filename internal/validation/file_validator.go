package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingFile marks a required data file that is absent.
var ErrMissingFile = errors.New("required file missing")

// FileValidator checks the local data directory and CLI output paths.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDirectory checks that dir exists and is a directory.
func (v *FileValidator) ValidateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Data directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("data directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateFile checks that path is a readable regular file.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDataDir checks dir and every file in files, relative to dir. All
// problems are reported together.
func (v *FileValidator) ValidateDataDir(dir string, files []string) error {
	if err := v.ValidateDirectory(dir); err != nil {
		return err
	}

	var errs []error
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := v.ValidateFile(path); err != nil {
			errs = append(errs, err)
			continue
		}
		if ext := strings.ToLower(filepath.Ext(name)); ext != ".csv" && ext != ".json" && ext != ".geojson" {
			errs = append(errs, fmt.Errorf("file %s has unexpected extension %q", path, ext))
		}
	}

	if err := errors.Join(errs...); err != nil {
		v.logger.Warn("Data directory incomplete",
			slog.String("directory", dir),
			slog.Int("problems", len(errs)))
		return err
	}

	v.logger.Info("Data directory validated",
		slog.String("directory", dir),
		slog.Int("files", len(files)))
	return nil
}

// ValidateOutputFile checks that path can be created: its parent must be an
// existing directory and path itself must not be one.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output %s is a directory", path)
	}
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", parent, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output parent %s is not a directory", parent)
	}
	return nil
}
