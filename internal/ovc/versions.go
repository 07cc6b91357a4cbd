package ovc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// VersionSnapshot is the observed state of a file recorded as a version.
type VersionSnapshot struct {
	FileSize       string
	FileHash       string
	FileModifiedAt *time.Time
	StoredLocation string
	Encrypted      bool
}

// CreateVersion records a new version of a file, numbered one past the
// latest. It raises no alert and writes no history; change detection goes
// through DetectAndRecord.
func (s *Service) CreateVersion(ctx context.Context, fileID string, snap VersionSnapshot) (*sqlc.FileVersion, error) {
	file, dir, err := s.fileAndDirectory(ctx, fileID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockFile(fileID)
	defer unlock()

	version := s.newVersion(s.idgen.New(), file, dir, snap.FileSize, snap.FileHash, snap.FileModifiedAt, s.now())
	version.StoredLocation = snap.StoredLocation
	version.Encrypted = snap.Encrypted
	if err := s.db.CreateVersion(ctx, version); err != nil {
		return nil, storeErr("creating version", err)
	}

	s.logger.Debug("version created", "file_id", fileID, "version_no", version.VersionNo)
	return version, nil
}

// LatestVersion returns the highest-numbered version of a file, or nil if the
// file has never been scanned successfully.
func (s *Service) LatestVersion(ctx context.Context, fileID string) (*sqlc.FileVersion, error) {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	v, err := s.db.LatestVersion(ctx, fileID)
	if err != nil {
		return nil, storeErr("finding latest version", err)
	}
	return v, nil
}

// ListVersions returns a file's versions, newest first.
func (s *Service) ListVersions(ctx context.Context, fileID string) ([]*sqlc.FileVersion, error) {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	versions, err := s.db.ListVersions(ctx, fileID)
	if err != nil {
		return nil, storeErr("listing versions", err)
	}
	return versions, nil
}

// GetVersion returns a version by ID.
func (s *Service) GetVersion(ctx context.Context, versionID string) (*sqlc.FileVersion, error) {
	v, err := s.db.FindVersion(ctx, versionID)
	if err != nil {
		return nil, storeErr("finding version", err)
	}
	if v == nil {
		return nil, fmt.Errorf("version %s: %w", versionID, ErrNotFound)
	}
	return v, nil
}

// ChangeHistory returns the change history rows of a file, newest first.
func (s *Service) ChangeHistory(ctx context.Context, fileID string) ([]*sqlc.FileChangeHistory, error) {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	rows, err := s.db.ListChangeHistory(ctx, fileID)
	if err != nil {
		return nil, storeErr("listing change history", err)
	}
	return rows, nil
}

// ArchiveBytes stores content as the archived copy of a version and records
// its location. An existing copy is replaced.
func (s *Service) ArchiveBytes(ctx context.Context, versionID string, content io.Reader, size int64) error {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	location, encrypted, err := s.putArchive(ctx, ArchiveKey(v.MonitoredFileID, v.ID), content, size)
	if err != nil {
		return fmt.Errorf("archiving version %s: %w", versionID, err)
	}
	if err := s.db.SetVersionStoredLocation(ctx, v.ID, location, encrypted); err != nil {
		return storeErr("recording archive location", err)
	}

	s.logger.Info("version archived", "version_id", versionID, "location", location)
	return nil
}

// ArchivedBytes writes the archived copy of a version to w, decrypting it
// with decryptCtx when it was stored encrypted.
func (s *Service) ArchivedBytes(ctx context.Context, versionID string, w io.Writer, decryptCtx DecryptionContext) error {
	v, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	return s.readArchive(ctx, v, w, decryptCtx)
}

func (s *Service) readArchive(ctx context.Context, v *sqlc.FileVersion, w io.Writer, decryptCtx DecryptionContext) error {
	if v.StoredLocation == "" {
		return fmt.Errorf("no archived copy of version %s: %w", v.ID, ErrNotFound)
	}
	key := ArchiveKey(v.MonitoredFileID, v.ID)

	if !v.Encrypted {
		if err := s.archive.Get(ctx, key, w); err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		return nil
	}

	if decryptCtx == nil {
		return fmt.Errorf("version %s: %w", v.ID, ErrPassphraseRequired)
	}
	pr, pw := io.Pipe()
	archiveErrCh := make(chan error, 1)
	go func() {
		err := s.archive.Get(ctx, key, pw)
		pw.CloseWithError(err)
		archiveErrCh <- err
	}()

	decryptErr := decryptCtx.Decrypt(pr, w)
	pr.CloseWithError(decryptErr)
	archiveErr := <-archiveErrCh

	if archiveErr != nil {
		return fmt.Errorf("reading archive: %w", archiveErr)
	}
	if decryptErr != nil {
		return fmt.Errorf("decrypting archive: %w", decryptErr)
	}
	return nil
}

// putArchive uploads content under key, encrypting it first when an
// encryptor is configured.
func (s *Service) putArchive(ctx context.Context, key string, content io.Reader, size int64) (string, bool, error) {
	if s.encryptor == nil {
		location, err := s.archive.Put(ctx, key, content, size)
		return location, false, err
	}

	pr, pw := io.Pipe()
	encErrCh := make(chan error, 1)
	go func() {
		err := s.encryptor.Encrypt(content, pw)
		pw.CloseWithError(err)
		encErrCh <- err
	}()

	location, putErr := s.archive.Put(ctx, key, pr, -1)
	pr.CloseWithError(putErr)
	encErr := <-encErrCh

	if encErr != nil {
		return "", false, fmt.Errorf("encrypting: %w", encErr)
	}
	if putErr != nil {
		return "", false, putErr
	}
	return location, true, nil
}

// archiveCapture archives the bytes a scanner left at path. It returns an
// empty location when the scanner did not write anything there.
func (s *Service) archiveCapture(ctx context.Context, fileID, versionID, path string) (string, bool, error) {
	f, err := s.capture.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("opening captured copy: %w", err)
	}
	defer f.Close()

	return s.putArchive(ctx, ArchiveKey(fileID, versionID), f, -1)
}

func (s *Service) newVersion(id string, file *sqlc.MonitoredFile, dir *sqlc.MonitoredDirectory, size, hash string, modifiedAt *time.Time, detectedAt time.Time) *sqlc.FileVersion {
	return &sqlc.FileVersion{
		ID:                id,
		MonitoredFileID:   file.ID,
		FileName:          file.FileName,
		ParentDirectory:   baseRemotePath(dir.Path),
		AbsoluteDirectory: dir.Path,
		FileSize:          size,
		FileHash:          hash,
		FileModifiedAt:    nullTime(modifiedAt),
		DetectedAt:        detectedAt,
		Status:            string(model.StatusActive),
		CreatedAt:         detectedAt,
	}
}

// fileAndDirectory loads an active file with its directory.
func (s *Service) fileAndDirectory(ctx context.Context, fileID string) (*sqlc.MonitoredFile, *sqlc.MonitoredDirectory, error) {
	file, err := s.GetFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	dir, err := s.GetDirectory(ctx, file.DirectoryID)
	if err != nil {
		return nil, nil, err
	}
	return file, dir, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
