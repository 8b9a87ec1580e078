package relay

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	data := []byte(`
baseURL: https://api.x.com/
method: post
timeout: 30
header:
  Accept: application/json
  X-Trace:
    enabled: true
tags:
  - a
  - nested: 1
`)

	cfg, err := ParseDefaults(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg[KeyBaseURL] != "https://api.x.com/" || cfg[KeyMethod] != "post" || cfg["timeout"] != 30 {
		t.Errorf("unexpected scalars: %v", cfg)
	}

	header, ok := cfg[KeyHeader].(Config)
	if !ok {
		t.Fatalf("Expected nested mapping as Config, got %T", cfg[KeyHeader])
	}
	if _, ok := header["X-Trace"].(Config); !ok {
		t.Errorf("Expected deeply nested mapping as Config, got %T", header["X-Trace"])
	}

	tags, ok := cfg["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %v", cfg["tags"])
	}
	if _, ok := tags[1].(Config); !ok {
		t.Errorf("Expected mapping inside sequence as Config, got %T", tags[1])
	}
}

func TestParseDefaultsEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n", "# only a comment\n"} {
		cfg, err := ParseDefaults([]byte(in))
		if err != nil {
			t.Fatalf("ParseDefaults(%q): %v", in, err)
		}
		if cfg == nil || len(cfg) != 0 {
			t.Errorf("ParseDefaults(%q) = %v, want empty config", in, cfg)
		}
	}
}

func TestParseDefaultsJSON(t *testing.T) {
	cfg, err := ParseDefaults([]byte(`{"baseURL": "https://api.x.com", "header": {"A": "1"}}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := Config{KeyBaseURL: "https://api.x.com", KeyHeader: Config{"A": "1"}}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Expected %v, got %v", want, cfg)
	}
}

func TestParseDefaultsInvalid(t *testing.T) {
	for _, in := range []string{"- just\n- a list\n", "key: [unclosed"} {
		if _, err := ParseDefaults([]byte(in)); err == nil {
			t.Errorf("ParseDefaults(%q) should fail", in)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RELAY_TEST_API", "https://env.x.com")
	t.Setenv("RELAY_TEST_TOKEN", "abc")

	path := filepath.Join(t.TempDir(), "defaults.yaml")
	content := "baseURL: ${RELAY_TEST_API}/v1\nheader:\n  Authorization: Bearer ${RELAY_TEST_TOKEN}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg[KeyBaseURL] != "https://env.x.com/v1" {
		t.Errorf("Expected expanded baseURL, got %v", cfg[KeyBaseURL])
	}
	if got := cfg[KeyHeader].(Config)["Authorization"]; got != "Bearer abc" {
		t.Errorf("Expected expanded token, got %q", got)
	}

	merged := Merge(Config{KeyURL: "users"}, cfg)
	if merged[KeyURL] != "https://env.x.com/v1/users" {
		t.Errorf("Expected loaded defaults to resolve urls, got %v", merged[KeyURL])
	}
}

func TestLoadDefaultsErrors(t *testing.T) {
	if _, err := LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read defaults") {
		t.Errorf("Expected read error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("key: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefaults(path); err == nil || !strings.Contains(err.Error(), "parse defaults") {
		t.Errorf("Expected parse error, got %v", err)
	}
}
