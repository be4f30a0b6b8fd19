package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

// Write stores every artifact that has a DistPath, creating parent
// directories as needed. All artifacts are attempted; the returned error
// joins one FileError per artifact that could not be written.
func Write(m ArtifactMap) error {
	var errs []error
	for _, slug := range m.Slugs() {
		a := m[slug]
		if a.DistPath == "" {
			continue
		}
		if err := writeFile(a.DistPath, a.Content); err != nil {
			errs = append(errs, &FileError{Path: a.DistPath, Err: err})
		}
	}
	return errors.Join(errs...)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").Build()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // public site output, non-sensitive
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write artifact").Build()
	}
	return nil
}

var sizeUnits = []string{"B ", "kB", "MB", "GB"}

// Size formats a byte count for the build summary: three significant digits
// shown with two decimals, e.g. "1.50 MB". Counts below 1000 print as "999 B ".
func Size(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d %s", n, sizeUnits[0])
	}
	exp := 0
	div := int64(1)
	for v := n; v >= 1000 && exp < len(sizeUnits)-1; v /= 1000 {
		exp++
		div *= 1000
	}
	v := roundSignificant(float64(n)/float64(div), 3)
	return fmt.Sprintf("%.2f %s", v, sizeUnits[exp])
}
