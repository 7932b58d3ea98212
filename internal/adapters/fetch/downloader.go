// Package fetch materializes remote and file-scheme URLs on local disk
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	perr "gwdata/internal/platform/errors"
	"gwdata/internal/platform/logger"
)

// Downloader fetches URLs into directories. Existing files are kept, so
// re-running a batch only transfers what is missing
type Downloader struct {
	Client *http.Client
	// Retries is the number of extra attempts after a transient failure
	Retries int
	// Backoff is the pause between attempts
	Backoff time.Duration
}

// NewDownloader builds a downloader with sane transfer defaults
func NewDownloader() *Downloader {
	return &Downloader{
		Client:  &http.Client{Timeout: 10 * time.Minute},
		Retries: 2,
		Backoff: 2 * time.Second,
	}
}

// Download fetches one URL into dir and returns the local path.
// file:// URLs are copied, http(s):// URLs are streamed
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", perr.InvalidArgf("bad download url %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", perr.InvalidArgf("url %q has no file name", rawURL)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "create %s", dir)
	}
	local := filepath.Join(dir, name)

	if _, err := os.Stat(local); err == nil {
		logger.C(ctx).Debug().Str("path", local).Msg("already on disk, skipping")
		return local, nil
	}

	switch u.Scheme {
	case "file":
		if err := copyFile(u.Path, local); err != nil {
			return "", err
		}
		return local, nil
	case "http", "https":
		if err := d.stream(ctx, rawURL, local); err != nil {
			return "", err
		}
		return local, nil
	default:
		return "", perr.InvalidArgf("unsupported url scheme %q", u.Scheme)
	}
}

func (d *Downloader) stream(ctx context.Context, rawURL, local string) error {
	var lastErr error
	for attempt := 0; attempt <= d.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "download canceled")
			case <-time.After(d.Backoff):
			}
		}
		lastErr = d.streamOnce(ctx, rawURL, local)
		if lastErr == nil {
			return nil
		}
		if !perr.Retryable(lastErr) {
			return lastErr
		}
		logger.C(ctx).Warn().Str("url", rawURL).Int("attempt", attempt+1).Err(lastErr).Msg("download retry")
	}
	return lastErr
}

func (d *Downloader) streamOnce(ctx context.Context, rawURL, local string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "build request")
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "get %s", rawURL)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return perr.NotFoundf("%s returned 404", rawURL)
	case resp.StatusCode >= 400:
		return perr.Unavailablef("%s returned %d", rawURL, resp.StatusCode)
	}

	tmp := local + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "create %s", tmp)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "stream %s", rawURL)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "flush %s", tmp)
	}
	return os.Rename(tmp, local)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return perr.NotFoundf("source file %s does not exist", src)
		}
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "create %s", dst)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "copy %s", src)
	}
	return nil
}
