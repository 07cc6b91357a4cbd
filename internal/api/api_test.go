package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ovc-go/internal/api"
	"ovc-go/internal/inventory"
	"ovc-go/internal/notify"
	"ovc-go/internal/ovc"
	"ovc-go/internal/testutil"
)

const (
	testDirPath  = "/opt/app/config"
	testFileName = "app.conf"
	testFilePath = testDirPath + "/" + testFileName
	testAddress  = "10.0.0.1"
)

type testEnv struct {
	svc     *ovc.Service
	scanner *testutil.FakeScanner
	events  *notify.Broadcaster
	server  *httptest.Server
	dirID   string
	fileID  string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv serves a Service with one monitored file whose baseline content
// is "abc".
func newTestEnv(t *testing.T, enc ovc.Encryptor, opts api.Options) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := testutil.NewTestDatabase(t)
	capture := testutil.NewTestCaptureArea()
	env := &testEnv{
		scanner: testutil.NewFakeScanner(capture),
		events:  notify.NewBroadcaster(0),
	}
	t.Cleanup(env.events.Close)

	svc, err := ovc.NewService(ovc.Deps{
		Database:  db,
		Archive:   testutil.NewTestArchive(),
		Scanner:   env.scanner,
		Resolver:  inventory.NewResolver(db, 16, time.Minute),
		Capture:   capture,
		Encryptor: enc,
		Notifier:  env.events,
		Clock:     testutil.FixedClock(),
		IDGen:     testutil.NewStubIDGenerator(),
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	env.svc = svc

	device, err := svc.AddDevice(ctx, "plc-01")
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}
	if _, err := svc.AddDeviceAddress(ctx, device.ID, testAddress, inventory.PrimaryAddressType, 0); err != nil {
		t.Fatalf("AddDeviceAddress() error = %v", err)
	}
	dir, err := svc.AddDirectory(ctx, device.ID, testDirPath)
	if err != nil {
		t.Fatalf("AddDirectory() error = %v", err)
	}
	env.scanner.SetFile(testFilePath, []byte("abc"))
	res, err := svc.AddFile(ctx, dir.ID, testFileName)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	env.dirID = dir.ID
	env.fileID = res.File.ID

	logger := discardLogger()
	h := api.NewHandler(svc, env.events, logger, opts)
	env.server = httptest.NewServer(api.NewRouter(h, logger))
	t.Cleanup(env.server.Close)
	return env
}

// modify changes the file on the device and scans it, returning the new alert.
func (e *testEnv) modify(t *testing.T, content string) *ovc.DetectionOutcome {
	t.Helper()
	e.scanner.SetFile(testFilePath, []byte(content))
	out, err := e.svc.ScanFile(context.Background(), e.fileID)
	if err != nil {
		t.Fatalf("ScanFile() error = %v", err)
	}
	return out
}

func (e *testEnv) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decode[errorResponse](t, resp)
	if body.Error.Code != code {
		t.Errorf("error code = %q, want %q (message %q)", body.Error.Code, code, body.Error.Message)
	}
}

type alertJSON struct {
	ID             string `json:"id"`
	FileID         string `json:"file_id"`
	Type           string `json:"type"`
	State          string `json:"state"`
	AcknowledgedBy string `json:"acknowledged_by"`
	ClearedBy      string `json:"cleared_by"`
}

type versionJSON struct {
	ID        string `json:"id"`
	VersionNo int64  `json:"version_no"`
	FileName  string `json:"file_name"`
	FileSize  string `json:"file_size"`
	SizeBytes *int64 `json:"size_bytes"`
	FileHash  string `json:"file_hash"`
	Archived  bool   `json:"archived"`
}

type list[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil, api.Options{})

	resp := env.do(t, http.MethodGet, "/health/live")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	if body := decode[map[string]string](t, resp); body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}

	resp = env.do(t, http.MethodGet, "/metrics")
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `ovc_http_requests_total{method="GET",path="/health/live",status="200"}`) {
		t.Error("metrics do not count the health request by route")
	}

	expectError(t, env.do(t, http.MethodGet, "/nope"), http.StatusNotFound, api.CodeNotFound)
}

func TestAlerts(t *testing.T) {
	env := newTestEnv(t, nil, api.Options{})
	out := env.modify(t, "xyz")
	alertPath := "/api/v1/alerts/" + out.Alert.ID

	t.Run("list open alerts of a file", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/alerts?open=true&file_id="+env.fileID)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body := decode[list[alertJSON]](t, resp)
		if body.Total != 1 || body.Items[0].ID != out.Alert.ID || body.Items[0].Type != "MODIFIED" {
			t.Errorf("alerts = %+v", body)
		}
	})

	t.Run("invalid open flag", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodGet, "/api/v1/alerts?open=maybe"), http.StatusBadRequest, api.CodeValidationError)
	})

	t.Run("acknowledge requires an actor", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodPut, alertPath+"/acknowledge"), http.StatusBadRequest, api.CodeValidationError)
	})

	t.Run("acknowledge", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, alertPath+"/acknowledge?by=alice")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		a := decode[alertJSON](t, resp)
		if a.State != "acknowledged" || a.AcknowledgedBy != "alice" {
			t.Errorf("alert = %+v", a)
		}
	})

	t.Run("acknowledge twice", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, alertPath+"/acknowledge?by=bob")
		expectError(t, resp, http.StatusConflict, api.CodeAlreadyAcknowledged)
	})

	t.Run("clear", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, alertPath+"/clear?by=bob")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if a := decode[alertJSON](t, resp); a.State != "cleared" || a.ClearedBy != "bob" {
			t.Errorf("alert = %+v", a)
		}
	})

	t.Run("clear twice", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodPut, alertPath+"/clear?by=bob"), http.StatusConflict, api.CodeAlreadyCleared)
	})

	t.Run("no open alerts remain", func(t *testing.T) {
		body := decode[list[alertJSON]](t, env.do(t, http.MethodGet, "/api/v1/alerts?open=true"))
		if body.Total != 0 {
			t.Errorf("open alerts = %d, want 0", body.Total)
		}
	})

	t.Run("unknown alert", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodGet, "/api/v1/alerts/missing"), http.StatusNotFound, api.CodeNotFound)
	})
}

func TestVersions(t *testing.T) {
	env := newTestEnv(t, nil, api.Options{})
	env.modify(t, "xyz")

	resp := env.do(t, http.MethodGet, "/api/v1/files/"+env.fileID+"/versions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	versions := decode[list[versionJSON]](t, resp)
	if versions.Total != 2 || versions.Items[0].VersionNo != 2 || versions.Items[1].VersionNo != 1 {
		t.Fatalf("versions = %+v", versions)
	}
	latest := versions.Items[0]
	if latest.FileHash != testutil.SHA256Hex([]byte("xyz")) || !latest.Archived {
		t.Errorf("latest = %+v", latest)
	}
	if latest.SizeBytes == nil || *latest.SizeBytes != 3 {
		t.Errorf("size_bytes = %v, want 3", latest.SizeBytes)
	}

	t.Run("history", func(t *testing.T) {
		history := decode[list[map[string]any]](t, env.do(t, http.MethodGet, "/api/v1/files/"+env.fileID+"/history"))
		if history.Total != 1 || history.Items[0]["version_id"] != latest.ID {
			t.Errorf("history = %+v", history)
		}
	})

	t.Run("get version", func(t *testing.T) {
		v := decode[versionJSON](t, env.do(t, http.MethodGet, "/api/v1/versions/"+latest.ID))
		if v.ID != latest.ID || v.FileName != testFileName {
			t.Errorf("version = %+v", v)
		}
	})

	t.Run("download", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/versions/"+versions.Items[1].ID+"/download")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, testFileName) {
			t.Errorf("Content-Disposition = %q", cd)
		}
		raw, _ := io.ReadAll(resp.Body)
		if string(raw) != "abc" {
			t.Errorf("downloaded %q, want abc", raw)
		}
	})

	t.Run("unknown file and version", func(t *testing.T) {
		expectError(t, env.do(t, http.MethodGet, "/api/v1/files/missing/versions"), http.StatusNotFound, api.CodeNotFound)
		expectError(t, env.do(t, http.MethodGet, "/api/v1/versions/missing/download"), http.StatusNotFound, api.CodeNotFound)
	})
}

func TestEncryptedDownload(t *testing.T) {
	enc := testutil.NewTestEncryptor()

	t.Run("without a key", func(t *testing.T) {
		env := newTestEnv(t, enc, api.Options{})
		versions, _ := env.svc.ListVersions(context.Background(), env.fileID)
		resp := env.do(t, http.MethodGet, "/api/v1/versions/"+versions[0].ID+"/download")
		expectError(t, resp, http.StatusBadRequest, api.CodeValidationError)
	})

	t.Run("with an unlocked key", func(t *testing.T) {
		dc, err := enc.Unlock("secret")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		env := newTestEnv(t, enc, api.Options{Decrypt: dc})
		versions, _ := env.svc.ListVersions(context.Background(), env.fileID)
		resp := env.do(t, http.MethodGet, "/api/v1/versions/"+versions[0].ID+"/download")
		raw, _ := io.ReadAll(resp.Body)
		if string(raw) != "abc" {
			t.Errorf("downloaded %q, want abc", raw)
		}
	})
}

func TestScan(t *testing.T) {
	env := newTestEnv(t, nil, api.Options{})

	t.Run("file scan reports a modification", func(t *testing.T) {
		env.scanner.SetFile(testFilePath, []byte("xyz"))
		resp := env.do(t, http.MethodPost, "/api/v1/files/"+env.fileID+"/scan")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body := decode[struct {
			Result  string       `json:"result"`
			Version *versionJSON `json:"version"`
			Alert   *alertJSON   `json:"alert"`
		}](t, resp)
		if body.Result != string(ovc.OutcomeModified) || body.Version == nil || body.Version.VersionNo != 2 || body.Alert == nil {
			t.Errorf("outcome = %+v", body)
		}
	})

	t.Run("unreachable device is reported in the outcome", func(t *testing.T) {
		env.scanner.FailAddress(testAddress, &ovc.ScanError{Code: ovc.ScanUnreachable, Address: testAddress, Reason: "timeout"})
		defer env.scanner.FailAddress(testAddress, nil)

		body := decode[map[string]any](t, env.do(t, http.MethodPost, "/api/v1/files/"+env.fileID+"/scan"))
		if body["scan_error_code"] != string(ovc.ScanUnreachable) {
			t.Errorf("outcome = %v", body)
		}
	})

	t.Run("directory scan writes a scan log", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/directories/"+env.dirID+"/scan")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body := decode[struct {
			Log struct {
				FilesScanned int64  `json:"files_scanned"`
				Status       string `json:"status"`
			} `json:"log"`
		}](t, resp)
		if body.Log.FilesScanned != 1 || body.Log.Status != "completed" {
			t.Errorf("log = %+v", body.Log)
		}

		logs := decode[list[map[string]any]](t, env.do(t, http.MethodGet, "/api/v1/directories/"+env.dirID+"/scan-logs?limit=5"))
		if logs.Total != 1 {
			t.Errorf("scan logs = %d, want 1", logs.Total)
		}
	})

	t.Run("invalid scan log limit", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/directories/"+env.dirID+"/scan-logs?limit=-1")
		expectError(t, resp, http.StatusBadRequest, api.CodeValidationError)
	})

	t.Run("inactive directory", func(t *testing.T) {
		if err := env.svc.SetDirectoryActive(context.Background(), env.dirID, false); err != nil {
			t.Fatalf("SetDirectoryActive() error = %v", err)
		}
		resp := env.do(t, http.MethodPost, "/api/v1/directories/"+env.dirID+"/scan")
		expectError(t, resp, http.StatusConflict, api.CodeConflict)

		resp = env.do(t, http.MethodPost, "/api/v1/files/"+env.fileID+"/scan")
		expectError(t, resp, http.StatusConflict, api.CodeConflict)
	})
}

func TestRestore(t *testing.T) {
	t.Run("clears open alerts", func(t *testing.T) {
		env := newTestEnv(t, nil, api.Options{})
		versions, _ := env.svc.ListVersions(context.Background(), env.fileID)
		baseline := versions[0]
		out := env.modify(t, "xyz")

		resp := env.do(t, http.MethodPost, "/api/v1/versions/"+baseline.ID+"/restore")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body := decode[struct {
			VersionNo     int64    `json:"version_no"`
			Address       string   `json:"address"`
			ClearedAlerts []string `json:"cleared_alerts"`
		}](t, resp)
		if body.VersionNo != 1 || body.Address != testAddress || len(body.ClearedAlerts) != 1 || body.ClearedAlerts[0] != out.Alert.ID {
			t.Errorf("restore = %+v", body)
		}
		if got, _ := env.scanner.File(testFilePath); string(got) != "abc" {
			t.Errorf("device content = %q, want abc", got)
		}
	})

	t.Run("failed write-back", func(t *testing.T) {
		env := newTestEnv(t, nil, api.Options{})
		versions, _ := env.svc.ListVersions(context.Background(), env.fileID)
		env.modify(t, "xyz")
		env.scanner.FailWriteBack(testAddress, errors.New("device busy"))

		resp := env.do(t, http.MethodPost, "/api/v1/versions/"+versions[0].ID+"/restore")
		expectError(t, resp, http.StatusBadGateway, api.CodeRestoreFailed)

		open := decode[list[alertJSON]](t, env.do(t, http.MethodGet, "/api/v1/alerts?open=true"))
		if open.Total != 1 {
			t.Errorf("open alerts = %d, want 1", open.Total)
		}
	})
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t, nil, api.Options{KeepAlive: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/api/v1/events", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/events error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	// Headers are flushed after subscribing.
	if n := env.events.Subscribers(); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}

	out := env.modify(t, "xyz")

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	if event != "AlertChanged" {
		t.Errorf("event = %q, want AlertChanged", event)
	}
	var payload struct {
		FileID  string `json:"file_id"`
		AlertID string `json:"alert_id"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decoding event data %q: %v", data, err)
	}
	if payload.FileID != env.fileID || payload.AlertID != out.Alert.ID || payload.State != "new" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	logger := discardLogger()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	srv := api.NewServer(ln.Addr().String(), mux, time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET /ping error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
