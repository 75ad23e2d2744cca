// Package storage reads and rewrites g-code files on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// BackupSuffix is appended to a g-code path to name its compressed backup.
const BackupSuffix = ".orig.zst"

// File is a core.StreamStore over local files.  Replacements go through a
// temporary file in the target's directory and a rename, so readers only
// ever see the old or the new content.
type File struct {
	maxBytes  int64
	chunkSize int
}

// NewFile returns a File store.  maxBytes of 0 disables the size limit.
func NewFile(maxBytes int64, chunkSize int) *File {
	return &File{maxBytes: maxBytes, chunkSize: chunkSize}
}

// BackupPath returns where the backup of path is kept.
func BackupPath(path string) string { return path + BackupSuffix }

func (f *File) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "file.read", err)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "file.read.open",
			pkgerrors.Wrapf(err, "unable to open %s", path))
	}
	defer fh.Close()

	buf, err := utils.DrainReader(ctx, &utils.LimitedReader{R: fh, Max: f.maxBytes}, f.chunkSize)
	if err != nil {
		if errors.Is(err, utils.ErrLimitExceeded) {
			return nil, apperrors.New(apperrors.CategoryInput, "file.read",
				fmt.Errorf("%w: %s is larger than %d bytes", apperrors.ErrFileTooLarge, path, f.maxBytes))
		}
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "file.read",
			pkgerrors.Wrapf(err, "unable to read %s", path))
	}
	defer utils.ReleaseBuffer(buf)
	return utils.CloneBytes(buf.Bytes()), nil
}

func (f *File) Replace(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.replace", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.replace", err)
	}
	return nil
}

// writeAtomic writes data next to path and renames it into place, keeping
// the permissions of an existing file.
func writeAtomic(path string, data []byte) (err error) {
	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkgerrors.Wrapf(err, "unable to create temporary file for %s", path)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return pkgerrors.Wrapf(err, "unable to write %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		return pkgerrors.Wrapf(err, "unable to sync %s", tmp.Name())
	}
	if err = tmp.Chmod(mode); err != nil {
		return pkgerrors.Wrapf(err, "unable to chmod %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return pkgerrors.Wrapf(err, "unable to close %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return pkgerrors.Wrapf(err, "unable to replace %s", path)
	}
	return nil
}
