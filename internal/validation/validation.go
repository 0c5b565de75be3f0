// Package validation checks paths and files handed to the importer.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsImportFile checks that path names an existing regular .csv file.
func IsImportFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("unsupported file type %q: expected .csv", filepath.Ext(path))
	}
	return nil
}

// IsPrivateFile checks that the file at path is not accessible to others.
// Private keys and credential files must pass this check.
func IsPrivateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	return IsValidFilePermissions(info.Mode().Perm())
}

// IsValidFilePermissions checks if the given file mode is valid for sensitive files.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 { // Check if 'others' have any permissions
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600", mode.String())
	}
	return nil
}
