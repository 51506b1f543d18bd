package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("地区\n"), 0o644))
	}
}

func TestValidateDataDir(t *testing.T) {
	tests := []struct {
		name          string
		present       []string
		required      []string
		wantErr       bool
		wantMissing   bool
		errorContains string
	}{
		{
			name:     "complete",
			present:  []string{"all_data.csv", "q1.csv", "china.json"},
			required: []string{"all_data.csv", "q1.csv", "china.json"},
		},
		{
			name:        "missing csv",
			present:     []string{"all_data.csv", "china.json"},
			required:    []string{"all_data.csv", "q1.csv", "china.json"},
			wantErr:     true,
			wantMissing: true,
		},
		{
			name:          "wrong extension",
			present:       []string{"all_data.xlsx"},
			required:      []string{"all_data.xlsx"},
			wantErr:       true,
			errorContains: "unexpected extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.present...)

			err := newValidator().ValidateDataDir(dir, tt.required)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantMissing {
				assert.ErrorIs(t, err, ErrMissingFile)
			}
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestValidateDataDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	err := newValidator().ValidateDataDir(dir, []string{"q1.csv", "q2.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q1.csv")
	assert.Contains(t, err.Error(), "q2.csv")
}

func TestValidateDirectory(t *testing.T) {
	v := newValidator()
	dir := t.TempDir()
	assert.NoError(t, v.ValidateDirectory(dir))
	assert.ErrorContains(t, v.ValidateDirectory(filepath.Join(dir, "nope")), "does not exist")

	writeFiles(t, dir, "file.csv")
	assert.ErrorContains(t, v.ValidateDirectory(filepath.Join(dir, "file.csv")), "not a directory")
}

func TestValidateFile(t *testing.T) {
	v := newValidator()
	dir := t.TempDir()
	writeFiles(t, dir, "q1.csv")

	assert.NoError(t, v.ValidateFile(filepath.Join(dir, "q1.csv")))
	assert.ErrorIs(t, v.ValidateFile(filepath.Join(dir, "q9.csv")), ErrMissingFile)
	assert.ErrorContains(t, v.ValidateFile(dir), "is a directory")
}

func TestValidateOutputFile(t *testing.T) {
	v := newValidator()
	dir := t.TempDir()

	assert.NoError(t, v.ValidateOutputFile(filepath.Join(dir, "out.xlsx")))
	assert.Error(t, v.ValidateOutputFile(dir))
	assert.Error(t, v.ValidateOutputFile(filepath.Join(dir, "missing", "out.xlsx")))
}
