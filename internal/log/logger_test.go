package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfigureReapplies(t *testing.T) {
	t.Cleanup(func() { Configure(Config{Level: "info"}) })

	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf, Service: "padd", Version: "v0"})
	Configure(Config{Level: "debug", Output: &buf, Service: "robot", Version: "v1"})

	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug after second Configure", got)
	}

	l := WithComponent("test")
	l.Debug().Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "robot" {
		t.Errorf("service = %v, want robot", entry["service"])
	}
	if entry["version"] != "v1" {
		t.Errorf("version = %v, want v1", entry["version"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v", entry["component"])
	}
}
