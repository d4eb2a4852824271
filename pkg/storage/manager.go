package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"eromedl/pkg/logger"
)

// DefaultTitle is used when an album title sanitizes to nothing
const DefaultTitle = "temp"

const partSuffix = ".part"

var illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeTitle makes an album or profile name safe to use as a directory
// name by replacing reserved characters and trimming dots and spaces.
func SanitizeTitle(title string) string {
	title = illegalChars.ReplaceAllString(title, "_")
	title = strings.Trim(title, ". ")
	if title == "" {
		return DefaultTitle
	}
	return title
}

// FileName returns the base name of a media URL's path
func FileName(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return ""
	}
	return name
}

// Manager handles the on-disk layout of albums under a base directory
type Manager struct {
	baseDir string
	logger  logger.Logger
}

// NewManager creates a new storage manager rooted at baseDir
func NewManager(baseDir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{baseDir: baseDir, logger: log}, nil
}

// BaseDir returns the output root
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// AlbumDir returns <base>/<profile?>/<title> without creating it
func (m *Manager) AlbumDir(profile, title string) string {
	if profile == "" {
		return filepath.Join(m.baseDir, title)
	}
	return filepath.Join(m.baseDir, profile, title)
}

// EnsureAlbumDir creates the album directory if needed and returns it
func (m *Manager) EnsureAlbumDir(profile, title string) (string, error) {
	dir := m.AlbumDir(profile, title)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create album directory: %w", err)
	}
	return dir, nil
}

// ExistingSize reports the size of a regular file, or false when absent
func ExistingSize(filePath string) (int64, bool) {
	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

// WithinTolerance reports whether an on-disk size is close enough to the
// expected size to count as already downloaded
func WithinTolerance(existing, expected, tolerance int64) bool {
	diff := existing - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// PartFile is a download in progress. Data is written to <path>.part and
// moved into place by Commit.
type PartFile struct {
	*os.File
	final string
}

// CreatePartFile opens a fresh temporary file next to filePath
func CreatePartFile(filePath string) (*PartFile, error) {
	f, err := os.Create(filePath + partSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	return &PartFile{File: f, final: filePath}, nil
}

// Commit flushes, closes and renames the part file over the final path
func (p *PartFile) Commit() error {
	if err := p.File.Sync(); err != nil {
		p.Abort()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := p.File.Close(); err != nil {
		os.Remove(p.File.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(p.File.Name(), p.final); err != nil {
		os.Remove(p.File.Name())
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Abort closes and removes the part file
func (p *PartFile) Abort() {
	p.File.Close()
	os.Remove(p.File.Name())
}

// ArchiveAndRemove zips the contents of dir into the sibling <dir>.zip and
// deletes dir. Entries are stored relative to dir. The directory is left in
// place if the archive cannot be written.
func (m *Manager) ArchiveAndRemove(dir string) (string, error) {
	dir = filepath.Clean(dir)
	zipPath := dir + ".zip"

	if err := m.writeZip(dir, zipPath); err != nil {
		return "", err
	}
	m.logger.WithField("zip", zipPath).Info("Created zip file")

	if err := os.RemoveAll(dir); err != nil {
		return zipPath, fmt.Errorf("failed to remove album directory: %w", err)
	}
	m.logger.WithField("dir", dir).Info("Deleted folder")

	return zipPath, nil
}

func (m *Manager) writeZip(dir, zipPath string) error {
	tempPath := zipPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, partSuffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return addZipEntry(zw, p, filepath.ToSlash(rel))
	})

	if walkErr == nil {
		walkErr = zw.Close()
	}
	if walkErr == nil {
		walkErr = out.Sync()
	}
	closeErr := out.Close()

	if walkErr != nil || closeErr != nil {
		os.Remove(tempPath)
		if walkErr == nil {
			walkErr = closeErr
		}
		return fmt.Errorf("failed to write zip file: %w", walkErr)
	}

	if err := os.Rename(tempPath, zipPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename zip file: %w", err)
	}
	return nil
}

func addZipEntry(zw *zip.Writer, filePath, name string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
