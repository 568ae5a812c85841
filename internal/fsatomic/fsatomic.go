// Package fsatomic provides the write-temp-then-rename and atomic-mkdir
// primitives every orchestration namespace (registry, signals, locks,
// claims, handoffs, shared artifacts, workflow state) is built on: every
// write is atomic via write-temp-then-rename, and locks use atomic
// directory creation as their mutex.
package fsatomic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path by creating a temp file in the same
// directory and renaming it into place, so concurrent readers never
// observe a partially written file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}
	return nil
}

// WriteJSON marshals v and writes it atomically to path.
func WriteJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteFile(path, data, perm)
}

// ReadJSON reads and unmarshals a JSON document from path into v.
// Returns os.ErrNotExist (wrapped) if the file is absent; callers that
// tolerate absent metadata should check errors.Is(err, os.ErrNotExist).
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s: %w", path, errEmptyFile)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

var errEmptyFile = errors.New("file is empty")

// AppendLine appends a single line (newline-terminated) to path, creating
// the file if necessary. Used for per-agent message logs, where each
// record is one JSON line.
//
// A plain O_APPEND write of a single line is atomic at the OS level for
// writes smaller than the pipe/file-system atomic-write limit, which every
// message record here comfortably is.
func AppendLine(path string, line []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir %s: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if !endsInNewline(line) {
		line = append(line, '\n')
	}
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

func endsInNewline(b []byte) bool {
	return len(b) > 0 && b[len(b)-1] == '\n'
}

// Mkdir attempts to atomically create dir. Returns true if this call won
// the creation race, false if the directory already existed. Other errors
// are returned as-is. This is the primitive backing advisory locks.
func Mkdir(dir string) (created bool, err error) {
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Exists reports whether path exists (file or directory).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsNotExist reports whether err indicates an absent file, including the
// empty-file and os.ErrNotExist cases ReadJSON can return.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, errEmptyFile)
}
