package receipt

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studio-b12/gowebdav"
)

// ArchiveResult is the structured outcome of an archive attempt.
// ArchivedPath is the canonical stored location when Success is true.
type ArchiveResult struct {
	Success      bool
	ArchivedPath string
	ErrorMessage string
}

func archiveOK(archivedPath string) ArchiveResult {
	return ArchiveResult{Success: true, ArchivedPath: archivedPath}
}

func archiveFail(format string, args ...interface{}) ArchiveResult {
	return ArchiveResult{ErrorMessage: fmt.Sprintf(format, args...)}
}

// Archiver durably stores a local file at a logical remote path.
type Archiver interface {
	Archive(localPath, remotePath string) ArchiveResult
}

// WebdavConfig holds the remote archive settings (Nextcloud-style WebDAV).
type WebdavConfig struct {
	BaseURL  string
	Username string
	Password string
	BasePath string // e.g. /remote.php/dav/files
}

// WebdavArchiver uploads receipts to a WebDAV store.
type WebdavArchiver struct {
	cfg    WebdavConfig
	client *gowebdav.Client
}

// NewWebdavArchiver returns a WebdavArchiver. An unconfigured archiver is
// valid and fails every Archive call, which lets the fallback take over.
func NewWebdavArchiver(cfg WebdavConfig) *WebdavArchiver {
	a := &WebdavArchiver{cfg: cfg}
	if cfg.BaseURL != "" && cfg.Username != "" && cfg.Password != "" {
		root := strings.TrimRight(cfg.BaseURL, "/") +
			"/" + strings.Trim(cfg.BasePath, "/") +
			"/" + cfg.Username
		a.client = gowebdav.NewClient(root, cfg.Username, cfg.Password)
	}
	return a
}

// Archive implements Archiver.
func (a *WebdavArchiver) Archive(localPath, remotePath string) ArchiveResult {
	if a.client == nil {
		return archiveFail("webdav not configured")
	}

	src, err := os.Open(localPath)
	if err != nil {
		return archiveFail("pdf not found: %s", localPath)
	}
	defer src.Close()

	remote := "/" + strings.TrimLeft(remotePath, "/")
	if dir := path.Dir(remote); dir != "/" && dir != "." {
		if err := a.client.MkdirAll(dir, 0o755); err != nil {
			return archiveFail("webdav mkdir %s: %v", dir, err)
		}
	}

	if err := a.client.WriteStream(remote, src, 0o644); err != nil {
		return archiveFail("webdav put %s: %v", remote, err)
	}

	canonical := strings.TrimRight(a.cfg.BaseURL, "/") +
		"/" + strings.Trim(a.cfg.BasePath, "/") +
		"/" + a.cfg.Username + remote
	return archiveOK(canonical)
}

// LocalArchiver copies receipts under a base directory on the local disk.
// It is the degraded path when the remote store is unreachable.
type LocalArchiver struct {
	baseDir string
}

// NewLocalArchiver returns a LocalArchiver rooted at baseDir.
func NewLocalArchiver(baseDir string) *LocalArchiver {
	return &LocalArchiver{baseDir: baseDir}
}

// Archive implements Archiver.
func (a *LocalArchiver) Archive(localPath, remotePath string) ArchiveResult {
	src, err := os.Open(localPath)
	if err != nil {
		return archiveFail("pdf not found: %s", localPath)
	}
	defer src.Close()

	dest := filepath.Join(a.baseDir, filepath.FromSlash(strings.TrimLeft(remotePath, "/")))
	if err := os.MkdirAll(filepath.Dir(dest), 0o775); err != nil {
		return archiveFail("cannot create dir: %s", filepath.Dir(dest))
	}

	// Write to a temp name first so a failed copy never leaves a truncated
	// archive behind.
	tmp := dest + "." + uuid.NewString() + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return archiveFail("cannot create file: %s", tmp)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return archiveFail("copy failed to: %s", dest)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return archiveFail("copy failed to: %s", dest)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return archiveFail("copy failed to: %s", dest)
	}

	return archiveOK(dest)
}

// FallbackArchiver tries a primary backend and falls back to a secondary
// one when the primary fails. It holds no state per call and is safe for
// concurrent use.
type FallbackArchiver struct {
	primary  Archiver
	fallback Archiver
	log      zerolog.Logger
}

// NewFallbackArchiver composes primary-then-fallback archival.
func NewFallbackArchiver(primary, fallback Archiver, log zerolog.Logger) *FallbackArchiver {
	return &FallbackArchiver{primary: primary, fallback: fallback, log: log}
}

// Archive implements Archiver. The primary result is returned unchanged on
// success; otherwise the fallback result is returned verbatim, success or
// not.
func (a *FallbackArchiver) Archive(localPath, remotePath string) ArchiveResult {
	res := a.primary.Archive(localPath, remotePath)
	if res.Success {
		a.log.Info().
			Str("local_pdf", localPath).
			Str("remote_path", remotePath).
			Str("archived_path", res.ArchivedPath).
			Msg("Archived to primary backend")
		return res
	}

	a.log.Warn().
		Str("local_pdf", localPath).
		Str("remote_path", remotePath).
		Str("error", res.ErrorMessage).
		Msg("Primary archive failed, trying fallback")

	fallbackRes := a.fallback.Archive(localPath, remotePath)
	if fallbackRes.Success {
		a.log.Info().
			Str("local_pdf", localPath).
			Str("remote_path", remotePath).
			Str("archived_path", fallbackRes.ArchivedPath).
			Msg("Archived to fallback backend")
	} else {
		a.log.Error().
			Str("local_pdf", localPath).
			Str("remote_path", remotePath).
			Str("error", fallbackRes.ErrorMessage).
			Msg("Fallback archive failed")
	}
	return fallbackRes
}
