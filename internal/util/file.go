package util

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
)

// WriteAtomic replaces filename with contents, falling back to a
// plain write where atomic rename is unavailable.
func WriteAtomic(filename string, contents []byte) error {
	if err1 := atomic.WriteFile(filename, bytes.NewReader(contents)); err1 != nil {
		if err2 := os.WriteFile(filename, contents, 0666); err2 != nil {
			return err2
		}
	}
	return nil
}

// FileExists reports whether filename exists. Errors other than
// "does not exist" are returned.
func FileExists(filename string) (bool, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}
