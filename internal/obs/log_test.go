package obs

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestLogRequestEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	Logger().SetOutput(&buf)
	defer Logger().SetOutput(os.Stdout)

	LogRequest(map[string]any{"method": "POST", "status": 200})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a JSON line: %v (%q)", err, buf.String())
	}
	if entry["method"] != "POST" || entry["status"] != float64(200) {
		t.Fatalf("entry = %#v", entry)
	}
}

func TestLogRequestSurvivesUnserializableField(t *testing.T) {
	var buf bytes.Buffer
	Logger().SetOutput(&buf)
	defer Logger().SetOutput(os.Stdout)

	LogRequest(map[string]any{"bad": make(chan int)})

	if !strings.Contains(buf.String(), "unserializable log entry") {
		t.Fatalf("fallback line missing: %q", buf.String())
	}
}
