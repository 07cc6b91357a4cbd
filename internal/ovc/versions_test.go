package ovc_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ovc-go/internal/ovc"
	"ovc-go/internal/testutil"
)

func TestService_CreateVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("numbers versions consecutively", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")

		for i := 2; i <= 4; i++ {
			v, err := h.svc.CreateVersion(ctx, file.ID, ovc.VersionSnapshot{FileSize: "1", FileHash: fmt.Sprintf("h%d", i)})
			if err != nil {
				t.Fatalf("CreateVersion() error = %v", err)
			}
			if v.VersionNo != int64(i) {
				t.Errorf("VersionNo = %d, want %d", v.VersionNo, i)
			}
		}

		latest, err := h.svc.LatestVersion(ctx, file.ID)
		if err != nil {
			t.Fatalf("LatestVersion() error = %v", err)
		}
		if latest.VersionNo != 4 || latest.FileHash != "h4" {
			t.Errorf("latest = %d/%s, want 4/h4", latest.VersionNo, latest.FileHash)
		}
		// CreateVersion is bookkeeping only.
		if n := len(h.alerts(t, file.ID, false)); n != 0 {
			t.Errorf("got %d alerts, want 0", n)
		}
		if n := len(h.history(t, file.ID)); n != 0 {
			t.Errorf("got %d history rows, want 0", n)
		}
	})

	t.Run("concurrent creations never reuse a number", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		res, err := h.svc.AddFile(ctx, dir.ID, testFileName)
		if err != nil {
			t.Fatalf("AddFile() error = %v", err)
		}
		fileID := res.File.ID

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.svc.CreateVersion(ctx, fileID, ovc.VersionSnapshot{FileSize: "1", FileHash: fmt.Sprintf("h%d", i)})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("CreateVersion() error = %v", err)
			}
		}

		versions := h.versions(t, fileID)
		if len(versions) != n {
			t.Fatalf("got %d versions, want %d", len(versions), n)
		}
		// Newest first: n, n-1, ..., 1.
		for i, v := range versions {
			if want := int64(n - i); v.VersionNo != want {
				t.Errorf("versions[%d].VersionNo = %d, want %d", i, v.VersionNo, want)
			}
		}
	})

	t.Run("concurrent scans of one file record a single baseline", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		res, err := h.svc.AddFile(ctx, dir.ID, testFileName)
		if err != nil {
			t.Fatalf("AddFile() error = %v", err)
		}
		h.scanner.SetFile(testFilePath, []byte("abc"))

		const n = 8
		var wg sync.WaitGroup
		kinds := make(chan ovc.OutcomeKind, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				out, err := h.svc.ScanFile(ctx, res.File.ID)
				if err != nil {
					t.Errorf("ScanFile() error = %v", err)
					return
				}
				kinds <- out.Kind
			}()
		}
		wg.Wait()
		close(kinds)

		counts := map[ovc.OutcomeKind]int{}
		for k := range kinds {
			counts[k]++
		}
		if counts[ovc.OutcomeBaseline] != 1 || counts[ovc.OutcomeUnchanged] != n-1 {
			t.Errorf("outcomes = %v, want 1 baseline and %d unchanged", counts, n-1)
		}
		if got := len(h.versions(t, res.File.ID)); got != 1 {
			t.Errorf("got %d versions, want 1", got)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateVersion(ctx, "missing", ovc.VersionSnapshot{FileHash: "h"})
		if !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("CreateVersion() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Versions_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("latest version of never scanned file is nil", func(t *testing.T) {
		h := newHarness(t)
		dir := h.addDirectory(t)
		res, _ := h.svc.AddFile(ctx, dir.ID, "never.conf")

		v, err := h.svc.LatestVersion(ctx, res.File.ID)
		if err != nil {
			t.Fatalf("LatestVersion() error = %v", err)
		}
		if v != nil {
			t.Errorf("LatestVersion() = %+v, want nil", v)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.svc.GetVersion(ctx, "missing"); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("GetVersion() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("history lookups of unknown file", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.svc.ListVersions(ctx, "missing"); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("ListVersions() error = %v, want ErrNotFound", err)
		}
		if _, err := h.svc.ChangeHistory(ctx, "missing"); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("ChangeHistory() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_ArchiveBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("archives and reads back", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")
		v, err := h.svc.CreateVersion(ctx, file.ID, ovc.VersionSnapshot{FileSize: "4", FileHash: "h2"})
		if err != nil {
			t.Fatalf("CreateVersion() error = %v", err)
		}

		if err := h.svc.ArchiveBytes(ctx, v.ID, strings.NewReader("data"), 4); err != nil {
			t.Fatalf("ArchiveBytes() error = %v", err)
		}
		got, _ := h.svc.GetVersion(ctx, v.ID)
		if got.StoredLocation == "" {
			t.Error("StoredLocation not recorded")
		}
		if s := h.archived(t, v.ID, nil); s != "data" {
			t.Errorf("archived = %q, want data", s)
		}
	})

	t.Run("version without archived copy is not found", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")
		v, _ := h.svc.CreateVersion(ctx, file.ID, ovc.VersionSnapshot{FileSize: "1", FileHash: "h2"})

		var buf bytes.Buffer
		err := h.svc.ArchivedBytes(ctx, v.ID, &buf, nil)
		if !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("ArchivedBytes() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("archive missing the object is not found", func(t *testing.T) {
		h := newHarness(t)
		file := h.addFile(t, "abc")
		v := h.versions(t, file.ID)[0]
		if err := h.archive.Delete(ctx, ovc.ArchiveKey(file.ID, v.ID)); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		var buf bytes.Buffer
		if err := h.svc.ArchivedBytes(ctx, v.ID, &buf, nil); !errors.Is(err, ovc.ErrNotFound) {
			t.Errorf("ArchivedBytes() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Encryption(t *testing.T) {
	ctx := context.Background()
	enc := testutil.NewTestEncryptor()

	h := newHarness(t, withEncryptor(enc))
	file := h.addFile(t, "secret config")
	v := h.versions(t, file.ID)[0]

	if !v.Encrypted {
		t.Fatal("version should be archived encrypted")
	}

	var raw bytes.Buffer
	if err := h.archive.Get(ctx, ovc.ArchiveKey(file.ID, v.ID), &raw); err != nil {
		t.Fatalf("archive Get() error = %v", err)
	}
	if !bytes.HasPrefix(raw.Bytes(), []byte("OVCENC")) {
		t.Errorf("archive holds %q, want encrypted form", raw.String())
	}

	t.Run("reading requires a passphrase", func(t *testing.T) {
		var buf bytes.Buffer
		err := h.svc.ArchivedBytes(ctx, v.ID, &buf, nil)
		if !errors.Is(err, ovc.ErrPassphraseRequired) {
			t.Errorf("ArchivedBytes() error = %v, want ErrPassphraseRequired", err)
		}
	})

	t.Run("unlocked context decrypts", func(t *testing.T) {
		dc, err := enc.Unlock("any")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		if got := h.archived(t, v.ID, dc); got != "secret config" {
			t.Errorf("archived = %q, want secret config", got)
		}
	})

	t.Run("restore requires a passphrase", func(t *testing.T) {
		_, err := h.svc.Restore(ctx, v.ID, nil)
		if !errors.Is(err, ovc.ErrPassphraseRequired) {
			t.Errorf("Restore() error = %v, want ErrPassphraseRequired", err)
		}
	})
}
