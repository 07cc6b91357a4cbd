package archive

import (
	"fmt"
	"strings"
)

// validateKey rejects keys that could escape the archive root.
// Keys are slash-separated, relative and free of dot segments.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("archive key is empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("invalid archive key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid archive key: %q", key)
		}
	}
	return nil
}
