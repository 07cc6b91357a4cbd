package ovc

import (
	"fmt"
	"time"
)

// Deps are the collaborators of a Service. Database, Archive, Scanner,
// Resolver and Capture are required; the rest default to no-op or real
// implementations when nil.
type Deps struct {
	Database  Database
	Archive   Archive
	Scanner   Scanner
	Resolver  AddressResolver
	Capture   CaptureArea
	Encryptor Encryptor // nil disables encryption at rest
	Notifier  Notifier
	Logger    Logger
	Clock     Clock
	IDGen     IDGenerator

	// ScanConcurrency bounds how many directories ScanAll works on at once.
	ScanConcurrency int
}

// Service is the orchestration layer for monitored-file versioning: scanning,
// change detection, alert lifecycle and restore.
type Service struct {
	db          Database
	archive     Archive
	scanner     Scanner
	resolver    AddressResolver
	capture     CaptureArea
	encryptor   Encryptor
	notifier    Notifier
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	concurrency int

	fileLocks *keyedMutex
}

// NewService creates a Service from deps.
func NewService(deps Deps) (*Service, error) {
	if deps.Database == nil || deps.Archive == nil || deps.Scanner == nil || deps.Resolver == nil || deps.Capture == nil {
		return nil, fmt.Errorf("database, archive, scanner, resolver and capture area are required")
	}

	s := &Service{
		db:          deps.Database,
		archive:     deps.Archive,
		scanner:     deps.Scanner,
		resolver:    deps.Resolver,
		capture:     deps.Capture,
		encryptor:   deps.Encryptor,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		clock:       deps.Clock,
		idgen:       deps.IDGen,
		concurrency: deps.ScanConcurrency,
		fileLocks:   newKeyedMutex(),
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.logger == nil {
		s.logger = NewNopLogger()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.idgen == nil {
		s.idgen = UUIDGenerator{}
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	return s, nil
}

// now returns the current time in UTC.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// lockFile serializes detection and version creation for one file.
func (s *Service) lockFile(fileID string) func() {
	return s.fileLocks.Lock(fileID)
}
