package ovc

import (
	"context"
	"fmt"
	"strings"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// AddDevice registers a device that hosts monitored files.
func (s *Service) AddDevice(ctx context.Context, name string) (*sqlc.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("device name is required")
	}

	device := &sqlc.Device{
		ID:        s.idgen.New(),
		Name:      name,
		Status:    string(model.StatusActive),
		CreatedAt: s.now(),
	}
	if err := s.db.CreateDevice(ctx, device); err != nil {
		return nil, storeErr("creating device", err)
	}

	s.logger.Info("device added", "device_id", device.ID, "name", name)
	return device, nil
}

// GetDevice returns a device by ID.
func (s *Service) GetDevice(ctx context.Context, id string) (*sqlc.Device, error) {
	device, err := s.db.FindDevice(ctx, id)
	if err != nil {
		return nil, storeErr("finding device", err)
	}
	if device == nil {
		return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return device, nil
}

// ListDevices returns all active devices.
func (s *Service) ListDevices(ctx context.Context) ([]*sqlc.Device, error) {
	devices, err := s.db.ListDevices(ctx)
	if err != nil {
		return nil, storeErr("listing devices", err)
	}
	return devices, nil
}

// AddDeviceAddress attaches a network address to a device. Lower priority
// values are tried first.
func (s *Service) AddDeviceAddress(ctx context.Context, deviceID, address, addressType string, priority int) (*sqlc.DeviceAddress, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if _, err := s.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	addr := &sqlc.DeviceAddress{
		ID:          s.idgen.New(),
		DeviceID:    deviceID,
		Address:     address,
		AddressType: addressType,
		Priority:    int64(priority),
		Status:      string(model.StatusActive),
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateDeviceAddress(ctx, addr); err != nil {
		return nil, storeErr("creating device address", err)
	}
	s.resolver.Invalidate(deviceID)

	s.logger.Info("device address added", "device_id", deviceID, "address", address, "type", addressType)
	return addr, nil
}

// ListDeviceAddresses returns a device's addresses in the order they are tried.
func (s *Service) ListDeviceAddresses(ctx context.Context, deviceID string) ([]*sqlc.DeviceAddress, error) {
	addrs, err := s.db.ListDeviceAddresses(ctx, deviceID)
	if err != nil {
		return nil, storeErr("listing device addresses", err)
	}
	return addrs, nil
}

// AddDirectory registers a directory on a device for monitoring.
// If the directory is already monitored, the existing record is returned.
func (s *Service) AddDirectory(ctx context.Context, deviceID, path string) (*sqlc.MonitoredDirectory, error) {
	path = cleanRemotePath(path)
	if !isAbsRemotePath(path) {
		return nil, fmt.Errorf("directory path must be absolute: %q", path)
	}
	if _, err := s.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	existing, err := s.db.FindDirectoryByPath(ctx, deviceID, path)
	if err != nil {
		return nil, storeErr("checking for existing directory", err)
	}
	if existing != nil {
		return existing, nil
	}

	dir := &sqlc.MonitoredDirectory{
		ID:        s.idgen.New(),
		DeviceID:  deviceID,
		Path:      path,
		Active:    true,
		Status:    string(model.StatusActive),
		CreatedAt: s.now(),
	}
	if err := s.db.CreateDirectory(ctx, dir); err != nil {
		return nil, storeErr("creating directory", err)
	}

	s.logger.Info("directory added", "directory_id", dir.ID, "device_id", deviceID, "path", path)
	return dir, nil
}

// GetDirectory returns an active directory by ID.
func (s *Service) GetDirectory(ctx context.Context, id string) (*sqlc.MonitoredDirectory, error) {
	dir, err := s.db.FindDirectory(ctx, id)
	if err != nil {
		return nil, storeErr("finding directory", err)
	}
	if dir == nil {
		return nil, fmt.Errorf("directory %s: %w", id, ErrNotFound)
	}
	return dir, nil
}

// ListDirectories returns the monitored directories of a device, or of all
// devices when deviceID is empty.
func (s *Service) ListDirectories(ctx context.Context, deviceID string) ([]*sqlc.MonitoredDirectory, error) {
	dirs, err := s.db.ListDirectories(ctx, deviceID)
	if err != nil {
		return nil, storeErr("listing directories", err)
	}
	return dirs, nil
}

// SetDirectoryActive pauses or resumes scanning of a directory.
func (s *Service) SetDirectoryActive(ctx context.Context, id string, active bool) error {
	if err := s.db.SetDirectoryActive(ctx, id, active); err != nil {
		return storeErr("updating directory", err)
	}
	s.logger.Info("directory updated", "directory_id", id, "active", active)
	return nil
}

// RemoveDirectory soft-deletes a directory along with its files.
// Versions, history and alerts are kept.
func (s *Service) RemoveDirectory(ctx context.Context, id string) error {
	if err := s.db.DeleteDirectory(ctx, id); err != nil {
		return storeErr("removing directory", err)
	}
	s.logger.Info("directory removed", "directory_id", id)
	return nil
}

// AddFileResult is the outcome of registering a file.
type AddFileResult struct {
	File *sqlc.MonitoredFile
	// Baseline is the initial scan's detection. When the scan failed its
	// Kind is OutcomeSkipped and ScanErr says why; the file stays registered.
	Baseline *DetectionOutcome
}

// AddFile registers fileName inside a monitored directory and runs the
// initial scan that establishes version 1.
func (s *Service) AddFile(ctx context.Context, directoryID, fileName string) (*AddFileResult, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.ContainsAny(fileName, `/\`) {
		return nil, fmt.Errorf("invalid file name: %q", fileName)
	}

	dir, err := s.GetDirectory(ctx, directoryID)
	if err != nil {
		return nil, err
	}

	existing, err := s.db.FindFileByName(ctx, directoryID, fileName)
	if err != nil {
		return nil, storeErr("checking for existing file", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("file %s is already monitored in %s: %w", fileName, dir.Path, ErrConflict)
	}

	file := &sqlc.MonitoredFile{
		ID:          s.idgen.New(),
		DirectoryID: directoryID,
		FileName:    fileName,
		Status:      string(model.StatusActive),
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateFile(ctx, file); err != nil {
		return nil, storeErr("creating file", err)
	}
	s.logger.Info("file added", "file_id", file.ID, "directory_id", directoryID, "name", fileName)

	outcome, err := s.scanFile(ctx, dir, file)
	if err != nil {
		return nil, fmt.Errorf("initial scan of %s: %w", fileName, err)
	}

	return &AddFileResult{File: file, Baseline: outcome}, nil
}

// GetFile returns an active monitored file by ID.
func (s *Service) GetFile(ctx context.Context, id string) (*sqlc.MonitoredFile, error) {
	file, err := s.db.FindFile(ctx, id)
	if err != nil {
		return nil, storeErr("finding file", err)
	}
	if file == nil {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return file, nil
}

// ListFiles returns the active files of a directory.
func (s *Service) ListFiles(ctx context.Context, directoryID string) ([]*sqlc.MonitoredFile, error) {
	files, err := s.db.ListFiles(ctx, directoryID)
	if err != nil {
		return nil, storeErr("listing files", err)
	}
	return files, nil
}

// RemoveFile stops monitoring a file. Its history is kept.
func (s *Service) RemoveFile(ctx context.Context, id string) error {
	unlock := s.lockFile(id)
	defer unlock()

	if err := s.db.DeleteFile(ctx, id); err != nil {
		return storeErr("removing file", err)
	}
	s.logger.Info("file removed", "file_id", id)
	return nil
}

// Device paths may be POSIX or Windows style; the device's own convention
// is inferred from the directory path.

func isAbsRemotePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\\`) {
		return true
	}
	// Drive letter, e.g. C:\ or C:/
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') && isLetter(p[0])
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// cleanRemotePath trims whitespace and trailing separators, keeping roots intact.
func cleanRemotePath(p string) string {
	p = strings.TrimSpace(p)
	for len(p) > 1 && strings.ContainsAny(p[len(p)-1:], `/\`) {
		if len(p) == 3 && p[1] == ':' {
			break
		}
		p = p[:len(p)-1]
	}
	return p
}

func remoteSeparator(dir string) string {
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		return `\`
	}
	return "/"
}

// joinRemotePath joins a directory and file name using the device's separator.
func joinRemotePath(dir, name string) string {
	sep := remoteSeparator(dir)
	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}

// baseRemotePath returns the last element of a device directory path.
func baseRemotePath(dir string) string {
	i := strings.LastIndexAny(dir, `/\`)
	if i < 0 || i == len(dir)-1 {
		return dir
	}
	return dir[i+1:]
}
