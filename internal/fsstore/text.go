package fsstore

import (
	"errors"
	"fmt"
	"os"
)

func ReadText(path string) (string, bool, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(normalized)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read text %s: %w", normalized, err)
	}
	return string(data), true, nil
}

func WriteTextAtomic(path string, content string, opts FileOptions) error {
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}
	return writeAtomic(normalized, []byte(content), opts)
}
