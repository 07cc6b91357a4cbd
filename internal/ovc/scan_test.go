package ovc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
	"ovc-go/internal/ovc"
)

// addFiles registers the named files in dir with the given contents.
func addFiles(t *testing.T, h *harness, dir *sqlc.MonitoredDirectory, contents map[string]string) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(contents))
	for name, content := range contents {
		h.scanner.SetFile(dir.Path+"/"+name, []byte(content))
		res, err := h.svc.AddFile(context.Background(), dir.ID, name)
		if err != nil {
			t.Fatalf("AddFile(%s) error = %v", name, err)
		}
		ids[name] = res.File.ID
	}
	return ids
}

func TestService_ScanDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("scans every file and logs the run", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		addFiles(t, h, dir, map[string]string{"a.conf": "a1", "b.conf": "b1"})
		h.scanner.SetFile(dir.Path+"/a.conf", []byte("a2"))

		res, err := h.svc.ScanDirectory(ctx, dir.ID)
		if err != nil {
			t.Fatalf("ScanDirectory() error = %v", err)
		}
		if len(res.Outcomes) != 2 || len(res.Failures) != 0 {
			t.Errorf("outcomes = %d failures = %d, want 2 and 0", len(res.Outcomes), len(res.Failures))
		}
		if res.Log.FilesScanned != 2 || res.Log.ChangesDetected != 1 || res.Log.Status != string(model.ScanCompleted) {
			t.Errorf("log = %+v, want 2 scanned, 1 change, completed", res.Log)
		}
	})

	t.Run("partial and failed runs", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		addFiles(t, h, dir, map[string]string{"a.conf": "a1", "b.conf": "b1"})

		h.scanner.FailPath(dir.Path+"/b.conf", ovc.NewScanError(ovc.ScanBadOutput, "unparseable output"))
		res, err := h.svc.ScanDirectory(ctx, dir.ID)
		if err != nil {
			t.Fatalf("ScanDirectory() error = %v", err)
		}
		if res.Log.Status != string(model.ScanPartial) || res.Log.FilesScanned != 1 {
			t.Errorf("log = %+v, want partial with 1 scanned", res.Log)
		}

		h.clock.Advance(time.Minute)
		h.scanner.FailAddress(testAddress, ovc.NewScanError(ovc.ScanUnreachable, "no route to host"))
		res, err = h.svc.ScanDirectory(ctx, dir.ID)
		if err != nil {
			t.Fatalf("ScanDirectory() error = %v", err)
		}
		if res.Log.Status != string(model.ScanFailed) || res.Log.FilesScanned != 0 {
			t.Errorf("log = %+v, want failed with 0 scanned", res.Log)
		}

		logs, err := h.svc.ListScanLogs(ctx, dir.ID, 0)
		if err != nil {
			t.Fatalf("ListScanLogs() error = %v", err)
		}
		if len(logs) != 2 || logs[0].Status != string(model.ScanFailed) {
			t.Errorf("logs = %+v, want newest failed run first", logs)
		}

		logs, _ = h.svc.ListScanLogs(ctx, dir.ID, 1)
		if len(logs) != 1 {
			t.Errorf("got %d logs with limit 1", len(logs))
		}
	})

	t.Run("empty directory completes", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)

		res, err := h.svc.ScanDirectory(ctx, dir.ID)
		if err != nil {
			t.Fatalf("ScanDirectory() error = %v", err)
		}
		if res.Log.Status != string(model.ScanCompleted) || res.Log.FilesScanned != 0 {
			t.Errorf("log = %+v", res.Log)
		}
	})

	t.Run("inactive directory is refused", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		if err := h.svc.SetDirectoryActive(ctx, dir.ID, false); err != nil {
			t.Fatalf("SetDirectoryActive() error = %v", err)
		}

		if _, err := h.svc.ScanDirectory(ctx, dir.ID); !errors.Is(err, ovc.ErrDirectoryInactive) {
			t.Errorf("ScanDirectory() error = %v, want ErrDirectoryInactive", err)
		}
	})

	t.Run("file of an inactive directory is refused", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")
		if err := h.svc.SetDirectoryActive(ctx, file.DirectoryID, false); err != nil {
			t.Fatalf("SetDirectoryActive() error = %v", err)
		}
		h.scanner.SetFile(testFilePath, []byte("xyz"))

		if _, err := h.svc.ScanFile(ctx, file.ID); !errors.Is(err, ovc.ErrDirectoryInactive) {
			t.Errorf("ScanFile() error = %v, want ErrDirectoryInactive", err)
		}
		if n := len(h.versions(t, file.ID)); n != 1 {
			t.Errorf("got %d versions, want only the baseline", n)
		}
		if n := len(h.alerts(t, file.ID, false)); n != 0 {
			t.Errorf("got %d alerts, want 0", n)
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		addFiles(t, h, dir, map[string]string{"a.conf": "a1"})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := h.svc.ScanDirectory(cctx, dir.ID); !errors.Is(err, context.Canceled) {
			t.Errorf("ScanDirectory() error = %v, want context.Canceled", err)
		}
	})
}

func TestService_ScanAll(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, func(d *ovc.Deps) { d.ScanConcurrency = 2 })
	first := h.addDirectory(t)
	second, err := h.svc.AddDirectory(ctx, first.DeviceID, "/opt/app/other")
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	paused, err := h.svc.AddDirectory(ctx, first.DeviceID, "/opt/app/paused")
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	addFiles(t, h, first, map[string]string{"a.conf": "a1"})
	addFiles(t, h, second, map[string]string{"b.conf": "b1", "c.conf": "c1"})
	addFiles(t, h, paused, map[string]string{"d.conf": "d1"})
	if err := h.svc.SetDirectoryActive(ctx, paused.ID, false); err != nil {
		t.Fatalf("SetDirectoryActive() error = %v", err)
	}
	h.scanner.SetFile("/opt/app/other/c.conf", []byte("c2"))

	results, err := h.svc.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d directory results, want 2", len(results))
	}

	changes := 0
	for _, res := range results {
		if res.Directory.ID == paused.ID {
			t.Error("paused directory was scanned")
		}
		changes += int(res.Log.ChangesDetected)
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}
