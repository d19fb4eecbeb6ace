// Package crx downloads packaged browser extensions from the update service
// and unpacks them into a directory tree.
package crx

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
)

// Fetcher downloads extension packages.
type Fetcher struct {
	fs   fs.Filesystem
	opts options
}

// NewFetcher creates a Fetcher writing archives to fsys.
func NewFetcher(fsys fs.Filesystem, opts ...Option) *Fetcher {
	o := defaultOptions()
	applyOptions(o, opts)
	return &Fetcher{fs: fsys, opts: *o}
}

// URL returns the download URL of the extension id.
func (f *Fetcher) URL(id string) (string, error) {
	u, err := url.Parse(f.opts.endpoint)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidConfig, "invalid update endpoint")
	}

	ext := url.Values{}
	ext.Set("id", id)
	// "uc" is a bare flag; url.Values would render it as "uc=".
	x := ext.Encode() + "&installsource=ondemand&uc"

	q := u.Query()
	q.Set("response", "redirect")
	q.Set("prodversion", DefaultProdVersion)
	q.Set("acceptformat", "crx3")
	q.Set("x", x)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads the current package of the extension id into out and returns
// the number of bytes written.
//
// The body is streamed into a temporary file next to out and renamed over it,
// so out either holds the complete response or is left as it was. Any status
// other than 200 is reported as a CodeNetwork error carrying the status.
func (f *Fetcher) Fetch(ctx context.Context, id, out string) (int64, error) {
	if id == "" {
		return 0, errors.New(errors.CodeInvalidInput, "extension id cannot be empty")
	}

	target, err := f.URL(id)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInvalidInput, "failed to build download request")
	}
	if f.opts.userAgent != "" {
		req.Header.Set("User-Agent", f.opts.userAgent)
	}
	if f.opts.referer != "" {
		req.Header.Set("Referer", f.opts.referer)
	}

	if f.opts.logger != nil {
		f.opts.logger.InfoContext(ctx, "downloading extension",
			"extension_id", id,
			"path", out)
	}

	resp, err := f.opts.client.Do(req)
	if err != nil {
		if f.opts.logger != nil {
			f.opts.logger.ErrorContext(ctx, "extension download failed",
				"extension_id", id,
				"error", err)
		}
		return 0, errors.WrapWithContext(err, errors.CodeNetwork, "failed to download extension",
			map[string]any{"extension_id": id})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		if f.opts.logger != nil {
			f.opts.logger.ErrorContext(ctx, "extension download failed",
				"extension_id", id,
				"status", resp.StatusCode)
		}
		return 0, errors.Newf(errors.CodeNetwork, "download returned status %d", resp.StatusCode).
			WithContext("status", resp.StatusCode).
			WithContext("extension_id", id)
	}

	n, err := fs.WriteFileAtomic(f.fs, out, resp.Body)
	if err != nil {
		if f.opts.logger != nil {
			f.opts.logger.ErrorContext(ctx, "failed to store extension archive",
				"extension_id", id,
				"path", out,
				"error", err)
		}
		return 0, errors.WrapWithContext(err, errors.CodeNetwork, "failed to store extension archive",
			map[string]any{"extension_id": id, "path": out})
	}

	if f.opts.logger != nil {
		f.opts.logger.InfoContext(ctx, "extension downloaded",
			"extension_id", id,
			"path", out,
			"bytes", n)
	}

	return n, nil
}
