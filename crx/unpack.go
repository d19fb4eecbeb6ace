package crx

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
)

// Unpacker extracts extension archives into a directory.
type Unpacker struct {
	fs   fs.Filesystem
	opts options
}

// NewUnpacker creates an Unpacker operating on fsys.
func NewUnpacker(fsys fs.Filesystem, opts ...Option) *Unpacker {
	o := defaultOptions()
	applyOptions(o, opts)
	return &Unpacker{fs: fsys, opts: *o}
}

// Result describes an unpacked archive.
type Result struct {
	Format   Format
	Files    int
	Manifest Manifest
}

// Unpack extracts the archive at archivePath into dir.
//
// Everything already in dir is removed first, except the entries configured
// with WithPreserve. The resulting file set and contents equal the archive's.
// A missing, empty or unreadable archive, and any entry resolving outside dir,
// fail with CodeInvalidArchive.
func (u *Unpacker) Unpack(ctx context.Context, archivePath, dir string) (*Result, error) {
	data, err := u.fs.ReadFile(archivePath)
	if err != nil {
		u.logError(ctx, "failed to read archive", archivePath, err)
		return nil, errors.WrapWithContext(err, errors.CodeInvalidArchive, "failed to read archive",
			map[string]any{"path": archivePath})
	}
	if len(data) == 0 {
		err := errors.New(errors.CodeInvalidArchive, "archive is empty").WithContext("path", archivePath)
		u.logError(ctx, "failed to read archive", archivePath, err)
		return nil, err
	}

	zipData, format, err := payload(data)
	if err != nil {
		u.logError(ctx, "failed to parse archive", archivePath, err)
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil && !stderrors.Is(err, zip.ErrInsecurePath) {
		u.logError(ctx, "failed to parse archive", archivePath, err)
		return nil, errors.WrapWithContext(err, errors.CodeInvalidArchive, "failed to open zip payload",
			map[string]any{"path": archivePath})
	}

	if err := fs.Clear(u.fs, dir, u.opts.preserve...); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeFilesystem, "failed to clear working directory",
			map[string]any{"path": dir})
	}

	result := &Result{Format: format}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeCanceled, "unpack interrupted")
		}

		name, err := entryPath(f.Name)
		if err != nil {
			u.logError(ctx, "rejected archive entry", archivePath, err)
			return nil, err
		}
		if name == "." {
			continue
		}
		if u.preserved(name) {
			if u.opts.logger != nil {
				u.opts.logger.WarnContext(ctx, "skipping archive entry shadowing a preserved path",
					"entry", f.Name)
			}
			continue
		}

		target := filepath.Join(dir, filepath.FromSlash(name))
		if f.FileInfo().IsDir() {
			if err := u.fs.MkdirAll(target, 0o755); err != nil {
				return nil, errors.WrapWithContext(err, errors.CodeFilesystem, "failed to create directory",
					map[string]any{"path": target})
			}
			continue
		}

		if err := u.extract(f, target); err != nil {
			return nil, err
		}
		result.Files++
	}

	if manifest, err := u.fs.ReadFile(filepath.Join(dir, ManifestFile)); err == nil {
		m, ok := ParseManifest(manifest)
		if !ok && u.opts.logger != nil {
			u.opts.logger.WarnContext(ctx, "manifest is not valid JSON", "path", ManifestFile)
		}
		result.Manifest = m
	}

	if u.opts.logger != nil {
		u.opts.logger.InfoContext(ctx, "extension unpacked",
			"path", dir,
			"format", string(format),
			"files", result.Files,
			"version", result.Manifest.Version)
	}

	return result, nil
}

func (u *Unpacker) extract(f *zip.File, target string) error {
	if err := u.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.WrapWithContext(err, errors.CodeFilesystem, "failed to create directory",
			map[string]any{"path": filepath.Dir(target)})
	}

	rc, err := f.Open()
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidArchive, "failed to open archive entry",
			map[string]any{"entry": f.Name})
	}
	defer rc.Close()

	out, err := u.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeFilesystem, "failed to create file",
			map[string]any{"path": target})
	}

	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if copyErr != nil {
		return errors.WrapWithContext(copyErr, errors.CodeInvalidArchive, "failed to extract archive entry",
			map[string]any{"entry": f.Name})
	}
	if closeErr != nil {
		return errors.WrapWithContext(closeErr, errors.CodeFilesystem, "failed to write file",
			map[string]any{"path": target})
	}
	return nil
}

func (u *Unpacker) preserved(name string) bool {
	first, _, _ := strings.Cut(name, "/")
	for _, p := range u.opts.preserve {
		if first == p {
			return true
		}
	}
	return false
}

func (u *Unpacker) logError(ctx context.Context, msg, archivePath string, err error) {
	if u.opts.logger != nil {
		u.opts.logger.ErrorContext(ctx, msg,
			"path", archivePath,
			"code", string(errors.GetCode(err)),
			"error", err)
	}
}

// entryPath cleans an archive entry name and rejects names escaping the
// extraction root.
func entryPath(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(slashed) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", errors.Newf(errors.CodeInvalidArchive, "archive entry %q has an absolute path", name).
			WithContext("entry", name)
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Newf(errors.CodeInvalidArchive, "archive entry %q escapes the target directory", name).
			WithContext("entry", name)
	}
	return cleaned, nil
}
