package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"csvimport/csv-import/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImportFile(t *testing.T) {
	tmpDir := t.TempDir()

	csvFile := filepath.Join(tmpDir, "import.CSV")
	require.NoError(t, os.WriteFile(csvFile, []byte("ACTIVITY_ID\n"), 0600))
	txtFile := filepath.Join(tmpDir, "notes.txt")
	require.NoError(t, os.WriteFile(txtFile, []byte("x"), 0600))

	tests := []struct {
		name        string
		path        string
		errContains string
	}{
		{name: "csv file", path: csvFile},
		{name: "missing file", path: filepath.Join(tmpDir, "missing.csv"), errContains: "file not found"},
		{name: "directory", path: tmpDir, errContains: "not a regular file"},
		{name: "wrong extension", path: txtFile, errContains: "expected .csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsImportFile(tt.path)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestIsPrivateFile(t *testing.T) {
	tmpDir := t.TempDir()

	private := filepath.Join(tmpDir, "id_ed25519")
	require.NoError(t, os.WriteFile(private, []byte("key"), 0600))
	assert.NoError(t, validation.IsPrivateFile(private))

	open := filepath.Join(tmpDir, "shared")
	require.NoError(t, os.WriteFile(open, []byte("key"), 0600))
	require.NoError(t, os.Chmod(open, 0644))
	err := validation.IsPrivateFile(open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too permissive")

	assert.Error(t, validation.IsPrivateFile(filepath.Join(tmpDir, "missing")))
}

func TestIsValidFilePermissions(t *testing.T) {
	tests := []struct {
		mode    os.FileMode
		wantErr bool
	}{
		{0600, false},
		{0640, false},
		{0644, true},
		{0777, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			err := validation.IsValidFilePermissions(tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
