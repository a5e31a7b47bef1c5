// internal/util/util.go
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// WrapToWidth wraps the given text to a specified width, breaking long words.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			out = append(out, "")
			continue
		}
		var cur strings.Builder
		runeCount := 0
		words := strings.Fields(line)
		for wi, w := range words {
			space := 0
			if wi > 0 {
				space = 1
			}
			wLen := utf8.RuneCountInString(w)
			if runeCount+space+wLen <= width {
				if wi > 0 {
					cur.WriteByte(' ')
					runeCount++
				}
				cur.WriteString(w)
				runeCount += wLen
				continue
			}
			if runeCount > 0 {
				out = append(out, cur.String())
				cur.Reset()
				runeCount = 0
			}
			if wLen <= width {
				cur.WriteString(w)
				runeCount = wLen
			} else {
				r := []rune(w)
				for start := 0; start < len(r); start += width {
					end := start + width
					if end > len(r) {
						end = len(r)
					}
					out = append(out, string(r[start:end]))
				}
			}
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		} else if len(words) == 0 {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}
