// Package jsonfile stores the registry and the ledger as two JSON documents on local disk.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
)

const filePerm = 0o644

// WriteFunc persists data at path. It must either replace the file completely or leave it untouched.
type WriteFunc func(path string, data []byte, perm os.FileMode) error

// document is one JSON file that is always read and rewritten as a whole.
type document struct {
	path  string
	kind  string
	write WriteFunc
	now   func() time.Time
}

func newDocument(path, kind string) *document {
	return &document{
		path:  path,
		kind:  kind,
		write: renameio.WriteFile,
		now:   time.Now,
	}
}

// read decodes the file into v. A missing file reports found=false with no error.
// A file that exists but does not decode is moved aside and also reports found=false,
// so the caller starts from empty state. I/O failures other than a missing file
// return an error wrapping ErrStorageUnreadable.
func (d *document) read(v any) (found bool, err error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: reading %s: %v", database.ErrStorageUnreadable, d.path, err)
	}

	if err := decode(data, v); err != nil {
		d.quarantine(err)
		return false, nil
	}
	return true, nil
}

// decode is strict about top-level shape but tolerant of unknown fields.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if c, ok := v.(interface{ check() error }); ok {
		return c.check()
	}
	return nil
}

func (d *document) quarantine(cause error) {
	dest := fmt.Sprintf("%s.corrupt-%s", d.path, d.now().UTC().Format("20060102T150405Z"))
	fields := log.Fields{
		"store": d.kind,
		"path":  d.path,
		"error": cause.Error(),
	}
	if err := os.Rename(d.path, dest); err != nil {
		fields["rename_error"] = err.Error()
		log.WithFields(fields).Error("Store is unreadable and could not be moved aside, starting empty")
		return
	}
	fields["quarantined_to"] = dest
	log.WithFields(fields).Warn("Store is unreadable, starting empty")
}

// persist marshals v and atomically replaces the file.
func (d *document) persist(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", database.ErrStorageWrite, d.kind, err)
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", database.ErrStorageWrite, dir, err)
		}
	}
	if err := d.write(d.path, data, filePerm); err != nil {
		return fmt.Errorf("%w: writing %s: %v", database.ErrStorageWrite, d.path, err)
	}
	return nil
}
