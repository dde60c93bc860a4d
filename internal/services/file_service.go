package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/isdelr/filevault-be/internal/models"
	"github.com/isdelr/filevault-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// UserDirResolver maps a username to the absolute root of that user's files.
type UserDirResolver interface {
	UserDir(username string) (string, error)
}

// Broadcaster pushes a message to every live connection of one user.
type Broadcaster interface {
	BroadcastTo(username string, message []byte)
}

// FileServiceProvider defines the interface for user-scoped file operations.
type FileServiceProvider interface {
	ResolvePath(username, relPath string) (string, error)
	List(username, path string) ([]models.FileEntry, error)
	CreateFolder(username, path, name string) error
	DeleteItem(username, path, name string, isDir bool) error
	Upload(username, path, filename string, content io.Reader) error
	Download(username, path, filename string) (*os.File, models.FileEntry, error)
}

// FileService confines every file operation to the caller's root directory.
type FileService struct {
	users        UserDirResolver
	eventService EventServiceProvider
	hub          Broadcaster
}

// NewFileService creates a new FileService. eventService and hub may be nil.
func NewFileService(users UserDirResolver, eventService EventServiceProvider, hub Broadcaster) *FileService {
	return &FileService{users: users, eventService: eventService, hub: hub}
}

// ResolvePath maps relPath onto an absolute path inside username's root.
//
// An empty path is the root itself. A path containing ".." or starting with a
// separator does not fail: it resolves to the root, so a traversal attempt
// lands at the top of the user's own tree and never outside it.
func (s *FileService) ResolvePath(username, relPath string) (string, error) {
	root, err := s.users.UserDir(username)
	if err != nil {
		return "", err
	}
	if relPath == "" {
		return root, nil
	}
	if strings.Contains(relPath, "..") || strings.HasPrefix(relPath, "/") || strings.HasPrefix(relPath, `\`) {
		log.Warn().Str("username", username).Str("path", relPath).Msg("Path traversal attempt, falling back to user root")
		return root, nil
	}

	rel := filepath.FromSlash(strings.ReplaceAll(relPath, `\`, "/"))
	full := filepath.Clean(filepath.Join(root, rel))
	if !within(root, full) {
		log.Warn().Str("username", username).Str("path", relPath).Msg("Resolved path escaped user root, falling back to user root")
		return root, nil
	}
	return full, nil
}

// List returns the immediate children of path, directories first and then by
// case-insensitive name. A missing directory yields an empty list.
func (s *FileService) List(username, path string) ([]models.FileEntry, error) {
	dir, err := s.ResolvePath(username, path)
	if err != nil {
		return nil, err
	}

	entries := []models.FileEntry{}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, ioFailure("read directory", err)
	}

	for _, entry := range dirEntries {
		fullPath := filepath.Join(dir, entry.Name())
		info, err := os.Stat(fullPath)
		if err != nil {
			log.Warn().Err(err).Str("file_name", entry.Name()).Msg("Could not get file info during file listing")
			continue
		}
		fe := models.FileEntry{
			Name:     entry.Name(),
			IsDir:    info.IsDir(),
			Modified: info.ModTime(),
			FullPath: fullPath,
		}
		if !fe.IsDir {
			fe.Size = info.Size()
		}
		entries = append(entries, fe)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// CreateFolder creates name under path.
func (s *FileService) CreateFolder(username, path, name string) error {
	if !validName(name) {
		return ErrInvalidFilename
	}
	dir, err := s.ResolvePath(username, path)
	if err != nil {
		return err
	}

	target := filepath.Join(dir, name)
	if _, err := os.Lstat(target); err == nil {
		return ErrDirectoryExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ioFailure("stat folder", err)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return ioFailure("create folder", err)
	}

	s.changed(username, "folder_created", path, name)
	recordEvent(s.eventService, "file.folder.create", "info", fmt.Sprintf("Folder '%s' created.", displayPath(path, name)), username)
	return nil
}

// DeleteItem removes name under path, recursively when isDir is set.
func (s *FileService) DeleteItem(username, path, name string, isDir bool) error {
	if !validName(name) {
		return ErrInvalidFilename
	}
	dir, err := s.ResolvePath(username, path)
	if err != nil {
		return err
	}

	target := filepath.Join(dir, name)
	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileNotFound
		}
		return ioFailure("stat item", err)
	}

	if isDir {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return ioFailure("delete item", err)
	}

	s.changed(username, "deleted", path, name)
	recordEvent(s.eventService, "file.delete", "warn", fmt.Sprintf("'%s' deleted.", displayPath(path, name)), username)
	return nil
}

// Upload writes content to path/filename, creating missing directories and
// overwriting an existing file of the same name.
func (s *FileService) Upload(username, path, filename string, content io.Reader) error {
	if !validName(filename) {
		return ErrInvalidFilename
	}
	dir, err := s.ResolvePath(username, path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioFailure("create upload directory", err)
	}

	target := filepath.Join(dir, filename)
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return ioFailure("create file", err)
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		os.Remove(target) // Clean up partial file
		return ioFailure("write file", err)
	}
	if err := out.Close(); err != nil {
		return ioFailure("close file", err)
	}

	s.changed(username, "uploaded", path, filename)
	recordEvent(s.eventService, "file.upload", "info", fmt.Sprintf("'%s' uploaded.", displayPath(path, filename)), username)
	return nil
}

// Download opens path/filename for reading. The caller closes the file.
func (s *FileService) Download(username, path, filename string) (*os.File, models.FileEntry, error) {
	if filename == "" {
		return nil, models.FileEntry{}, ErrMissingField
	}
	if strings.Contains(filename, "..") || strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, `\`) {
		return nil, models.FileEntry{}, ErrInvalidFilename
	}
	dir, err := s.ResolvePath(username, path)
	if err != nil {
		return nil, models.FileEntry{}, err
	}

	target := filepath.Clean(filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(filename, `\`, "/"))))
	if !within(dir, target) || target == dir {
		return nil, models.FileEntry{}, ErrInvalidFilename
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.FileEntry{}, ErrFileNotFound
		}
		return nil, models.FileEntry{}, ioFailure("stat file", err)
	}
	if info.IsDir() {
		return nil, models.FileEntry{}, ErrFileNotFound
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, models.FileEntry{}, ioFailure("open file", err)
	}
	return f, models.FileEntry{
		Name:     info.Name(),
		Size:     info.Size(),
		Modified: info.ModTime(),
		FullPath: target,
	}, nil
}

// changed notifies the user's live connections that a directory changed.
func (s *FileService) changed(username, op, path, name string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastTo(username, websocket.NewFilesChangedMessage(op, path, name))
}

// validName reports whether name is a single path element that cannot step
// out of its parent directory.
func validName(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// within reports whether path is root or lies below it. Both must be clean.
func within(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

func displayPath(path, name string) string {
	if path == "" {
		return name
	}
	return strings.TrimSuffix(strings.ReplaceAll(path, `\`, "/"), "/") + "/" + name
}
