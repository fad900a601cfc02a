// Package store persists the resolved configuration of a run so that
// later steps of the same job can read it back.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/replit/scaninit/internal/util"
)

// FileName is the name of the file inside the run's temporary
// directory.
const FileName = "config"

// Location returns the path the configuration of the run using
// tempDir is stored at.
func Location(tempDir string) string {
	return filepath.Join(tempDir, FileName)
}

// Read decodes the stored configuration into v. It reports false,
// and leaves v alone, if nothing has been written yet.
func Read(tempDir string, v interface{}) (bool, error) {
	filename := Location(tempDir)
	bytes, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", filename, err)
	}

	if err := json.Unmarshal(bytes, v); err != nil {
		return false, fmt.Errorf("%s: %w", filename, err)
	}
	return true, nil
}

// Write stores v as JSON. The file is replaced atomically so a reader
// never sees a partial configuration.
func Write(tempDir string, v interface{}) error {
	filename, err := filepath.Abs(Location(tempDir))
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	directory, _ := filepath.Split(filename)
	if err := os.MkdirAll(directory, 0777); err != nil {
		return fmt.Errorf("%s: %w", directory, err)
	}

	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	content = append(content, '\n')

	return util.WriteAtomic(filename, content)
}
