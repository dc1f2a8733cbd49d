// Package store persists characters and sessions as files under a sessions root:
//
//	<root>/<session>/characters/<key>.json
//	<root>/<session>/session_metadata.json
//	<root>/<session>/session_log.md
//
// There is no locking. Concurrent writers to the same file race and the last
// rename wins.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a character or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when a stored file is not valid JSON.
	ErrCorrupt = errors.New("corrupt record")
	// ErrUnsafeName is returned for names that cannot be used as a single path component.
	ErrUnsafeName = errors.New("unsafe name")
	// ErrExists is returned when creating a session that already exists.
	ErrExists = errors.New("already exists")
	// ErrSymlink is returned when a write target is a symlink.
	ErrSymlink = errors.New("refusing to write through symlink")
)

const (
	charactersDir    = "characters"
	metadataFile     = "session_metadata.json"
	logFile          = "session_log.md"
	recordExt        = ".json"
	dirPerm          = 0o755
	filePerm         = 0o644
	logClockFormat   = "15:04"
	logHeaderCreated = "2006-01-02 15:04"
	logHeaderDay     = "2006-01-02"
)

// now is overridden in tests.
var now = time.Now

func timestamp() string {
	return now().Format(time.RFC3339Nano)
}

// FileStore is a file-backed store rooted at a sessions directory.
type FileStore struct {
	Root string
}

// New returns a FileStore rooted at root.
func New(root string) *FileStore {
	return &FileStore{Root: root}
}

// ValidateName rejects names that would escape their directory or be empty.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) || strings.ContainsRune(name, os.PathSeparator) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}

func (s *FileStore) sessionDir(session string) string {
	return filepath.Join(s.Root, session)
}

// AppendFile appends text to path, creating the file when missing. A symlink at
// path is refused with ErrSymlink.
func AppendFile(path, text string) error {
	f, err := openFileNoFollow(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeFileAtomic writes data to a temp file beside path and renames it into place,
// so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	if info, statErr := os.Lstat(path); statErr == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s", ErrSymlink, path)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generate temp name: %w", err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if file != nil {
			_ = file.Close()
		}
		if err != nil {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err = file.Write(data); err != nil {
		return err
	}
	if err = file.Sync(); err != nil {
		return err
	}
	// Close before rename (required on Windows).
	if err = file.Close(); err != nil {
		return err
	}
	file = nil

	return os.Rename(tempPath, path)
}
