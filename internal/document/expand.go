package document

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrMissingEnv indicates a referenced environment variable is not set.
var ErrMissingEnv = errors.New("document: missing environment variables")

func expandEnv(s string, lookup func(string) (string, bool)) (string, error) {
	var missing []string
	out := os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	})

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(slices.Compact(missing), ", "))
	}
	return out, nil
}
