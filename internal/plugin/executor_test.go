package plugin

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes script as a plugin executable and returns the plugin.
func scriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	manifest := Manifest{Name: "test-plugin", Version: "1.0.0", Executable: "test-plugin.sh"}
	dir := writePlugin(t, t.TempDir(), manifest, script)

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "#!/bin/sh\necho '{\"success\":true,\"data\":{\"width\":1440,\"height\":900}}'\n")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionScreenSize})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	var size ScreenSize
	if err := json.Unmarshal(response.Data, &size); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if size.Width != 1440 || size.Height != 900 {
		t.Errorf("unexpected size %+v", size)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{Action: ActionPress, Params: json.RawMessage(`{"key":"space"}`)}

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received struct {
			Action string    `json:"action"`
			Params KeyParams `json:"params"`
		} `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Received.Action != ActionPress {
		t.Errorf("expected action %q, got %q", ActionPress, data.Received.Action)
	}
	if data.Received.Params.Key != "space" {
		t.Errorf("expected key 'space', got %q", data.Received.Params.Key)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "#!/bin/sh\nsleep 5\necho '{\"success\":true}'\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, &Request{Action: ActionPress})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout took too long: %v", time.Since(start))
	}
	if !strings.Contains(err.Error(), "timeout") && !strings.Contains(err.Error(), "killed") {
		t.Errorf("expected timeout-related error, got: %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "#!/bin/sh\necho '{\"success\":false,\"error\":\"something went wrong\"}'\n")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionPress})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "#!/bin/sh\necho 'not valid json'\n")

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionPress}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "#!/bin/sh\necho \"Error: something failed\" >&2\nexit 1\n")

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: ActionPress})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "something failed") {
		t.Errorf("expected stderr in the error, got %v", err)
	}
}
