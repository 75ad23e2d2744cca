package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

// Backup stores data, the untouched content of path, zstd compressed at
// BackupPath(path).  An existing backup is replaced: callers only back up
// content without previews, so it belongs to a newer slice than the backup.
func (f *File) Backup(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.backup", err)
	}
	dst := BackupPath(path)

	var buf bytes.Buffer
	if err := compress(&buf, data); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.backup",
			pkgerrors.Wrapf(err, "unable to compress %s", path))
	}
	if err := writeAtomic(dst, buf.Bytes()); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.backup", err)
	}
	return nil
}

// Restore replaces path with the content of its backup and removes the
// backup.
func (f *File) Restore(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.restore", err)
	}
	src := BackupPath(path)
	fh, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.New(apperrors.CategoryStorage, "file.restore",
				fmt.Errorf("%w: %s", apperrors.ErrBackupNotFound, src))
		}
		return apperrors.Wrap(apperrors.CategoryStorage, "file.restore",
			pkgerrors.Wrapf(err, "unable to open %s", src))
	}
	defer fh.Close()

	data, err := decompress(fh)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.restore",
			pkgerrors.Wrapf(err, "unable to decompress %s", src))
	}
	if err := writeAtomic(path, data); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.restore", err)
	}
	if err := os.Remove(src); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.restore",
			pkgerrors.Wrapf(err, "unable to remove %s", src))
	}
	return nil
}

func compress(w io.Writer, data []byte) error {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
