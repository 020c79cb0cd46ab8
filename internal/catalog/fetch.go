package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/mholt/archiver/v3"

	"github.com/jxwalker/ggmod/internal/classifier"
	ggerr "github.com/jxwalker/ggmod/internal/errors"
	"github.com/jxwalker/ggmod/internal/logging"
	"github.com/jxwalker/ggmod/internal/state"
	"github.com/jxwalker/ggmod/internal/util"
)

// CacheDir returns where f is (or would be) extracted. The cache is keyed by
// file name alone, so two different archives sharing a name share a directory.
func (c *Client) CacheDir(f File) string {
	return filepath.Join(c.cfg.General.DownloadRoot, util.ArchiveStem(localName(f)))
}

// localName is the on-disk archive name; files without a name take it from
// the download URL.
func localName(f File) string {
	if f.File != "" {
		return util.SafeFileName(f.File)
	}
	return util.SafeFileName(util.URLPathBase(f.DownloadURL))
}

// FetchFile returns a local directory holding the extracted contents of f,
// downloading and extracting it unless that directory already exists.
func (c *Client) FetchFile(ctx context.Context, f File) (string, error) {
	const op = "fetch"
	if f.DownloadURL == "" {
		return "", ggerr.Errorf(op, ggerr.KindInvalid, "file %q has no download url", f.File)
	}
	if c.cfg.General.DownloadRoot == "" {
		return "", ggerr.Errorf(op, ggerr.KindInvalid, "general.download_root is not configured")
	}
	dir := c.CacheDir(f)
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		c.log.Debugf("fetch: %s already extracted at %s", f.File, dir)
		return dir, nil
	}
	if err := os.MkdirAll(c.cfg.General.DownloadRoot, 0o755); err != nil {
		return "", ggerr.E(op, ggerr.KindIO, err)
	}

	name := localName(f)
	archive := filepath.Join(c.cfg.General.DownloadRoot, name)
	row := state.FetchRow{File: name, URL: f.DownloadURL, Dir: dir, Size: f.Filesize, Status: state.StatusDownloading}
	c.record(row)

	c.log.Infof("downloading %s", f.File)
	n, err := c.download(ctx, f.DownloadURL, archive)
	if err != nil {
		c.fail(row, err)
		return "", err
	}
	c.metrics.AddFetchBytes(n)
	row.Size = n

	c.log.Debugf("extracting %s to %s", archive, dir)
	if err := extract(archive, dir); err != nil {
		_ = os.RemoveAll(dir)
		_ = os.Remove(archive)
		c.fail(row, err)
		return "", err
	}
	// the extracted directory is the cache; the archive is not needed again
	if err := os.Remove(archive); err != nil {
		c.log.Warnf("could not remove %s: %v", archive, err)
	}
	row.Status = state.StatusExtracted
	c.record(row)
	return dir, nil
}

// download streams url into dest via dest.part and returns the byte count.
func (c *Client) download(ctx context.Context, url, dest string) (int64, error) {
	const op = "download"
	part := dest + ".part"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, ggerr.E(op, ggerr.KindInvalid, err)
	}
	req.Header.Set("User-Agent", userAgent(c.cfg))
	c.log.Debugf("GET %s", logging.SanitizeURL(url))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, ggerr.E(op, ggerr.KindNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, ggerr.Errorf(op, ggerr.KindNetwork, "unexpected status: %s", resp.Status)
	}

	out, err := os.Create(part)
	if err != nil {
		return 0, ggerr.E(op, ggerr.KindIO, err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		// a failed body read is a transport problem, a failed write is local
		var pe *os.PathError
		if errors.As(err, &pe) {
			return 0, ggerr.E(op, ggerr.KindIO, err)
		}
		return 0, ggerr.E(op, ggerr.KindNetwork, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return 0, ggerr.E(op, ggerr.KindIO, err)
	}
	return n, nil
}

func extract(archive, dir string) error {
	const op = "extract"
	var u archiver.Unarchiver
	switch format := classifier.Detect(archive); format {
	case classifier.Zip:
		u = archiver.NewZip()
	case classifier.Rar:
		u = archiver.NewRar()
	case classifier.Tar:
		u = archiver.NewTar()
	case classifier.TarGz:
		u = archiver.NewTarGz()
	case classifier.TarBz2:
		u = archiver.NewTarBz2()
	case classifier.TarXz:
		u = archiver.NewTarXz()
	case classifier.SevenZ:
		return extractSevenZip(archive, dir)
	default:
		return ggerr.Errorf(op, ggerr.KindInvalid, "unsupported archive format %q for %s", format, filepath.Base(archive))
	}
	if err := u.Unarchive(archive, dir); err != nil {
		return ggerr.E(op, ggerr.KindIO, fmt.Errorf("%s: %w", filepath.Base(archive), err))
	}
	return nil
}

// extractSevenZip unpacks a .7z archive, which archiver/v3 cannot read.
// Entries that would land outside dir are rejected.
func extractSevenZip(archive, dir string) error {
	const op = "extract"
	r, err := sevenzip.OpenReader(archive)
	if err != nil {
		return ggerr.E(op, ggerr.KindIO, fmt.Errorf("%s: %w", filepath.Base(archive), err))
	}
	defer r.Close()
	for _, f := range r.File {
		dest := filepath.Join(dir, filepath.FromSlash(f.Name))
		if !util.Within(dir, dest) {
			return ggerr.Errorf(op, ggerr.KindInvalid, "%s: entry %q escapes the extraction directory", filepath.Base(archive), f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return ggerr.E(op, ggerr.KindIO, err)
			}
			continue
		}
		if err := writeEntry(f, dest); err != nil {
			return ggerr.E(op, ggerr.KindIO, fmt.Errorf("%s: %s: %w", filepath.Base(archive), f.Name, err))
		}
	}
	return nil
}

func writeEntry(f *sevenzip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (c *Client) record(row state.FetchRow) {
	if c.st == nil {
		return
	}
	if err := c.st.UpsertFetch(row); err != nil {
		c.log.Warnf("fetch ledger: %v", err)
	}
}

func (c *Client) fail(row state.FetchRow, err error) {
	row.Status = state.StatusFailed
	row.LastError = err.Error()
	c.record(row)
}
