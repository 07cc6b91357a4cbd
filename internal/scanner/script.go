// Package scanner implements ovc.Scanner: probing monitored files on devices
// and writing archived bytes back to them.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"ovc-go/internal/ovc"
)

// waitDelay bounds how long a killed script may keep its output pipes open.
const waitDelay = 2 * time.Second

// ScriptOptions configures a ScriptScanner.
type ScriptOptions struct {
	// Interpreter runs the scripts, e.g. "python3". Empty runs them directly.
	Interpreter   string
	ScanScript    string
	RestoreScript string
	// Timeout bounds each script run.
	Timeout time.Duration
}

// ScriptScanner runs external scan and restore scripts for one device
// address at a time. The scripts print a single JSON object:
//
//	{"success": true, "data": {"fileSize": "12", "fileHash": "…", "fileDateModified": "…"}}
//	{"success": false, "code": "not_found", "message": "…"}
//
// A scan succeeds only when the script exits 0 and reports success.
type ScriptScanner struct {
	opts ScriptOptions
}

var _ ovc.Scanner = (*ScriptScanner)(nil)

// NewScriptScanner creates a ScriptScanner.
func NewScriptScanner(opts ScriptOptions) *ScriptScanner {
	return &ScriptScanner{opts: opts}
}

type scriptResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		FileSize         json.RawMessage `json:"fileSize"`
		FileHash         string          `json:"fileHash"`
		FileDateModified string          `json:"fileDateModified"`
	} `json:"data"`
}

// Scan runs the scan script: scanScript address filePath [archiveDestination].
func (s *ScriptScanner) Scan(ctx context.Context, address, filePath, archiveDestination string) (*ovc.ScanResult, error) {
	if err := validateTarget(address, filePath); err != nil {
		return nil, err
	}

	args := []string{address, filePath}
	if archiveDestination != "" {
		args = append(args, archiveDestination)
	}
	resp, err := s.run(ctx, s.opts.ScanScript, address, args)
	if err != nil {
		return nil, err
	}

	size, err := parseSize(resp.Data.FileSize)
	if err != nil {
		return nil, &ovc.ScanError{Code: ovc.ScanBadOutput, Address: address, Reason: err.Error()}
	}
	if resp.Data.FileHash == "" {
		return nil, &ovc.ScanError{Code: ovc.ScanBadOutput, Address: address, Reason: "missing fileHash"}
	}

	result := &ovc.ScanResult{FileSize: size, FileHash: resp.Data.FileHash}
	if resp.Data.FileDateModified != "" {
		mt, err := parseModified(resp.Data.FileDateModified)
		if err != nil {
			return nil, &ovc.ScanError{Code: ovc.ScanBadOutput, Address: address, Reason: err.Error()}
		}
		result.FileModifiedAt = &mt
	}
	return result, nil
}

// WriteBack runs the restore script: restoreScript address filePath sourcePath.
func (s *ScriptScanner) WriteBack(ctx context.Context, address, filePath, sourcePath string) error {
	if err := validateTarget(address, filePath); err != nil {
		return err
	}
	if sourcePath == "" {
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: "source path is required"}
	}
	_, err := s.run(ctx, s.opts.RestoreScript, address, []string{address, filePath, sourcePath})
	return err
}

// run executes script with args and decodes its response. Any failure is
// returned as *ovc.ScanError, except cancellation of ctx itself.
func (s *ScriptScanner) run(ctx context.Context, script, address string, args []string) (*scriptResponse, error) {
	if script == "" {
		return nil, &ovc.ScanError{Code: ovc.ScanScriptError, Address: address, Reason: "no script configured"}
	}

	runCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	name, argv := script, args
	if s.opts.Interpreter != "" {
		name, argv = s.opts.Interpreter, append([]string{script}, args...)
	}
	cmd := exec.CommandContext(runCtx, name, argv...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &ovc.ScanError{Code: ovc.ScanTimeout, Address: address, Reason: fmt.Sprintf("no answer within %s", s.opts.Timeout)}
	}

	resp, parseErr := decodeResponse(stdout.Bytes())
	if runErr != nil {
		if parseErr == nil && !resp.Success {
			return nil, classify(address, resp)
		}
		return nil, &ovc.ScanError{Code: ovc.ScanScriptError, Address: address, Reason: describeExit(runErr, stderr.String())}
	}
	if parseErr != nil {
		return nil, &ovc.ScanError{Code: ovc.ScanBadOutput, Address: address, Reason: parseErr.Error()}
	}
	if !resp.Success {
		return nil, classify(address, resp)
	}
	return resp, nil
}

// decodeResponse parses the JSON object printed by a script. Scripts may
// print diagnostics first, so the last non-empty line is tried as well.
func decodeResponse(out []byte) (*scriptResponse, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("script printed nothing")
	}

	var resp scriptResponse
	if err := json.Unmarshal(out, &resp); err == nil {
		return &resp, nil
	}
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		if err := json.Unmarshal(out[i+1:], &resp); err == nil {
			return &resp, nil
		}
	}
	return nil, fmt.Errorf("script output is not a JSON response: %q", truncate(string(out), 200))
}

// classify turns a script-reported failure into a ScanError. Scripts that
// predate the code field report absence with a "File not found" message.
func classify(address string, resp *scriptResponse) *ovc.ScanError {
	code := ovc.ScanFailureCode(resp.Code)
	switch code {
	case ovc.ScanNotFound, ovc.ScanUnreachable, ovc.ScanScriptError, ovc.ScanBadOutput, ovc.ScanTimeout, ovc.ScanOther:
	default:
		code = ovc.ScanOther
		if strings.HasPrefix(resp.Message, "File not found") {
			code = ovc.ScanNotFound
		}
	}
	reason := resp.Message
	if reason == "" {
		reason = "script reported failure"
	}
	return &ovc.ScanError{Code: code, Address: address, Reason: reason}
}

func describeExit(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, truncate(stderr, 500))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// parseSize accepts the size as a JSON string or number and returns its
// canonical decimal text.
func parseSize(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("missing fileSize")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("invalid fileSize %s", raw)
		}
		text = n.String()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("missing fileSize")
	}
	return text, nil
}

// modifiedLayouts are the timestamp forms scripts emit. Python's isoformat()
// omits the zone and is read as local time.
var modifiedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseModified(s string) (time.Time, error) {
	for _, layout := range modifiedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid fileDateModified %q", s)
}

// validateTarget rejects requests that cannot be sent to a device.
func validateTarget(address, filePath string) error {
	if strings.TrimSpace(address) == "" {
		return &ovc.ScanError{Code: ovc.ScanOther, Reason: "address is required"}
	}
	if !isAbsDevicePath(filePath) {
		return &ovc.ScanError{Code: ovc.ScanOther, Address: address, Reason: fmt.Sprintf("file path must be absolute: %q", filePath)}
	}
	return nil
}

// isAbsDevicePath accepts POSIX, UNC and drive-letter paths.
func isAbsDevicePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\\`) {
		return true
	}
	if len(p) < 3 || p[1] != ':' || (p[2] != '\\' && p[2] != '/') {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
