package ovc_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"ovc-go/internal/archive"
	"ovc-go/internal/database"
	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/inventory"
	"ovc-go/internal/ovc"
	"ovc-go/internal/staging"
	"ovc-go/internal/testutil"
)

const (
	testDirPath  = "/opt/app/config"
	testFileName = "app.conf"
	testFilePath = testDirPath + "/" + testFileName
	testAddress  = "10.0.0.1"
)

// harness wires a Service to an in-memory database, archive and capture area
// and a FakeScanner.
type harness struct {
	db       *database.SQLDatabase
	archive  *archive.MemoryArchive
	capture  *staging.CaptureArea
	scanner  *testutil.FakeScanner
	notifier *testutil.RecordingNotifier
	clock    *testutil.StubClock
	svc      *ovc.Service
}

// newHarness builds a harness. Each option may adjust the deps before the
// service is created.
func newHarness(t *testing.T, opts ...func(*ovc.Deps)) *harness {
	t.Helper()

	h := &harness{
		db:       testutil.NewTestDatabase(t),
		archive:  testutil.NewTestArchive(),
		capture:  testutil.NewTestCaptureArea(),
		notifier: testutil.NewRecordingNotifier(),
		clock:    testutil.FixedClock(),
	}
	h.scanner = testutil.NewFakeScanner(h.capture)

	deps := ovc.Deps{
		Database: h.db,
		Archive:  h.archive,
		Scanner:  h.scanner,
		Resolver: inventory.NewResolver(h.db, 16, time.Minute),
		Capture:  h.capture,
		Notifier: h.notifier,
		Logger:   ovc.NewNopLogger(),
		Clock:    h.clock,
		IDGen:    testutil.NewStubIDGenerator(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svc, err := ovc.NewService(deps)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	h.svc = svc
	return h
}

func withEncryptor(enc ovc.Encryptor) func(*ovc.Deps) {
	return func(d *ovc.Deps) { d.Encryptor = enc }
}

// addDirectory registers a device with one address and a monitored directory.
func (h *harness) addDirectory(t *testing.T) *sqlc.MonitoredDirectory {
	t.Helper()
	ctx := context.Background()

	device, err := h.svc.AddDevice(ctx, "plc-01")
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if _, err := h.svc.AddDeviceAddress(ctx, device.ID, testAddress, inventory.PrimaryAddressType, 0); err != nil {
		t.Fatalf("AddDeviceAddress() error = %v", err)
	}
	dir, err := h.svc.AddDirectory(ctx, device.ID, testDirPath)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	return dir
}

// addFile places content on the fake device and registers it, establishing
// the baseline version.
func (h *harness) addFile(t *testing.T, content string) *sqlc.MonitoredFile {
	t.Helper()

	dir := h.addDirectory(t)
	h.scanner.SetFile(testFilePath, []byte(content))
	res, err := h.svc.AddFile(context.Background(), dir.ID, testFileName)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	if res.Baseline.Kind != ovc.OutcomeBaseline {
		t.Fatalf("baseline kind = %s, want %s", res.Baseline.Kind, ovc.OutcomeBaseline)
	}
	return res.File
}

func (h *harness) scan(t *testing.T, fileID string) *ovc.DetectionOutcome {
	t.Helper()
	out, err := h.svc.ScanFile(context.Background(), fileID)
	if err != nil {
		t.Fatalf("ScanFile() error = %v", err)
	}
	return out
}

func (h *harness) versions(t *testing.T, fileID string) []*sqlc.FileVersion {
	t.Helper()
	versions, err := h.svc.ListVersions(context.Background(), fileID)
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	return versions
}

func (h *harness) alerts(t *testing.T, fileID string, openOnly bool) []*sqlc.FileAlert {
	t.Helper()
	alerts, err := h.svc.ListAlerts(context.Background(), ovc.AlertFilter{FileID: fileID, OpenOnly: openOnly})
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	return alerts
}

func (h *harness) history(t *testing.T, fileID string) []*sqlc.FileChangeHistory {
	t.Helper()
	rows, err := h.svc.ChangeHistory(context.Background(), fileID)
	if err != nil {
		t.Fatalf("ChangeHistory() error = %v", err)
	}
	return rows
}

func (h *harness) archived(t *testing.T, versionID string, dc ovc.DecryptionContext) string {
	t.Helper()
	var buf bytes.Buffer
	if err := h.svc.ArchivedBytes(context.Background(), versionID, &buf, dc); err != nil {
		t.Fatalf("ArchivedBytes() error = %v", err)
	}
	return buf.String()
}

func TestNewService(t *testing.T) {
	t.Run("requires core collaborators", func(t *testing.T) {
		if _, err := ovc.NewService(ovc.Deps{}); err == nil {
			t.Fatal("NewService() expected error for empty deps")
		}
	})

	t.Run("defaults optional collaborators", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		capture := testutil.NewTestCaptureArea()
		svc, err := ovc.NewService(ovc.Deps{
			Database: db,
			Archive:  testutil.NewTestArchive(),
			Scanner:  testutil.NewFakeScanner(capture),
			Resolver: inventory.NewResolver(db, 4, time.Minute),
			Capture:  capture,
		})
		if err != nil {
			t.Fatalf("NewService() error = %v", err)
		}

		device, err := svc.AddDevice(context.Background(), "plc-01")
		if err != nil {
			t.Fatalf("AddDevice() error = %v", err)
		}
		if device.ID == "" || device.CreatedAt.IsZero() {
			t.Errorf("device = %+v, want generated id and timestamp", device)
		}
	})
}

func TestService_Registry(t *testing.T) {
	ctx := context.Background()

	t.Run("device and addresses", func(t *testing.T) {
		h := newHarness(t)

		if _, err := h.svc.AddDevice(ctx, "  "); err == nil {
			t.Error("AddDevice() expected error for blank name")
		}
		device, err := h.svc.AddDevice(ctx, "plc-01")
		if err != nil {
			t.Fatalf("AddDevice() error = %v", err)
		}
		if _, err := h.svc.AddDeviceAddress(ctx, "missing", "10.0.0.9", "", 0); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("AddDeviceAddress() on unknown device error = %v, want ErrNotFound", err)
		}
		if _, err := h.svc.AddDeviceAddress(ctx, device.ID, "10.0.0.2", "Network-02", 1); err != nil {
			t.Fatalf("AddDeviceAddress() error = %v", err)
		}
		if _, err := h.svc.AddDeviceAddress(ctx, device.ID, "10.0.0.1", "Network-01", 0); err != nil {
			t.Fatalf("AddDeviceAddress() error = %v", err)
		}

		addrs, err := h.svc.ListDeviceAddresses(ctx, device.ID)
		if err != nil {
			t.Fatalf("ListDeviceAddresses() error = %v", err)
		}
		if len(addrs) != 2 || addrs[0].Address != "10.0.0.1" {
			t.Errorf("addresses = %v, want 10.0.0.1 first", addrs)
		}

		devices, err := h.svc.ListDevices(ctx)
		if err != nil {
			t.Fatalf("ListDevices() error = %v", err)
		}
		if len(devices) != 1 {
			t.Errorf("got %d devices, want 1", len(devices))
		}
	})

	t.Run("directory add is idempotent", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)

		again, err := h.svc.AddDirectory(ctx, dir.DeviceID, testDirPath+"/")
		if err != nil {
			t.Fatalf("AddDirectory() error = %v", err)
		}
		if again.ID != dir.ID {
			t.Errorf("AddDirectory() id = %s, want existing %s", again.ID, dir.ID)
		}
	})

	t.Run("directory path must be absolute", func(t *testing.T) {
		h := newHarness(t)
		device, _ := h.svc.AddDevice(ctx, "plc-01")

		if _, err := h.svc.AddDirectory(ctx, device.ID, "relative/path"); err == nil {
			t.Error("AddDirectory() expected error for relative path")
		}
		if _, err := h.svc.AddDirectory(ctx, device.ID, `C:\PLC\Config`); err != nil {
			t.Errorf("AddDirectory() windows path error = %v", err)
		}
	})

	t.Run("file registration", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")

		if _, err := h.svc.AddFile(ctx, file.DirectoryID, testFileName); !errors.Is(err, ovc.ErrConflict) {
			t.Errorf("duplicate AddFile() error = %v, want ErrConflict", err)
		}
		if _, err := h.svc.AddFile(ctx, file.DirectoryID, "sub/app.conf"); err == nil {
			t.Error("AddFile() expected error for name with separator")
		}
		if _, err := h.svc.AddFile(ctx, "missing", "x.conf"); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("AddFile() in unknown directory error = %v, want ErrNotFound", err)
		}

		files, err := h.svc.ListFiles(ctx, file.DirectoryID)
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].ID != file.ID {
			t.Errorf("files = %v, want [%s]", files, file.ID)
		}
	})

	t.Run("file stays registered when initial scan fails", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)

		res, err := h.svc.AddFile(ctx, dir.ID, "missing.conf")
		if err != nil {
			t.Fatalf("AddFile() error = %v", err)
		}
		if res.Baseline.Kind != ovc.OutcomeSkipped {
			t.Errorf("baseline kind = %s, want %s", res.Baseline.Kind, ovc.OutcomeSkipped)
		}
		if !ovc.IsFileAbsent(res.Baseline.ScanErr) {
			t.Errorf("ScanErr = %v, want not_found", res.Baseline.ScanErr)
		}
		if _, err := h.svc.GetFile(ctx, res.File.ID); err != nil {
			t.Errorf("GetFile() error = %v", err)
		}
		if n := len(h.versions(t, res.File.ID)); n != 0 {
			t.Errorf("got %d versions, want 0", n)
		}
	})

	t.Run("removed file and directory are not found", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")

		if err := h.svc.RemoveFile(ctx, file.ID); err != nil {
			t.Fatalf("RemoveFile() error = %v", err)
		}
		if _, err := h.svc.GetFile(ctx, file.ID); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("GetFile() error = %v, want ErrNotFound", err)
		}
		if _, err := h.svc.ScanFile(ctx, file.ID); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("ScanFile() error = %v, want ErrNotFound", err)
		}

		if err := h.svc.RemoveDirectory(ctx, file.DirectoryID); err != nil {
			t.Fatalf("RemoveDirectory() error = %v", err)
		}
		if _, err := h.svc.GetDirectory(ctx, file.DirectoryID); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("GetDirectory() error = %v, want ErrNotFound", err)
		}
	})
}
