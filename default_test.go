package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"strings"
	"testing"
)

func TestDefaultClient(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Default() != Default() {
		t.Error("Default() should return the same client")
	}
	if !Default().IsValid() {
		t.Errorf("default client should be valid: %v", Default().ValidationError())
	}
}

func TestPackageDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method))
	}))
	defer server.Close()

	res, err := Do(context.Background(), Config{KeyURL: server.URL, KeyMethod: "delete"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(res.(*Response).Data) != http.MethodDelete {
		t.Errorf("Expected DELETE, got %q", res.(*Response).Data)
	}
}

func TestCreateIsIndependent(t *testing.T) {
	a := Create(Config{"name": "a"}, WithTransport(newRecordingTransport(nil)))
	b := Create(Config{"name": "b"}, WithTransport(newRecordingTransport(nil)))

	if a.Interceptors() == b.Interceptors() {
		t.Error("clients must not share interceptors")
	}
	a.Interceptors().Request.Use(func(ctx context.Context, cfg Config) (Config, error) { return nil, nil })
	if b.Interceptors().Request.Handler() != nil {
		t.Error("registration on one client leaked into another")
	}
	if b.Defaults()["name"] != "b" {
		t.Error("clients must keep their own defaults")
	}
}

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	if !strings.HasPrefix(v, "relay "+Version) {
		t.Errorf("unexpected version string %q", v)
	}

	info := GetVersionInfo()
	for _, key := range []string{"version", "commit", "build_date", "go_version"} {
		if info[key] == "" {
			t.Errorf("version info missing %s", key)
		}
	}
}

func TestVersionFrom(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{"main module tagged", &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: "v1.2.0"}}, "v1.2.0"},
		{"main module checkout", &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: develVersion}}, develVersion},
		{"dependency", &debug.BuildInfo{
			Main: debug.Module{Path: "example.com/app"},
			Deps: []*debug.Module{{Path: "example.com/other", Version: "v9.9.9"}, {Path: modulePath, Version: "v0.4.1"}},
		}, "v0.4.1"},
		{"replaced dependency", &debug.BuildInfo{
			Main: debug.Module{Path: "example.com/app"},
			Deps: []*debug.Module{{Path: modulePath, Version: "v0.4.1", Replace: &debug.Module{Path: "example.com/fork", Version: "v0.4.2"}}},
		}, "v0.4.2"},
		{"not present", &debug.BuildInfo{Main: debug.Module{Path: "example.com/app"}}, develVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := versionFrom(tt.info); got != tt.want {
				t.Errorf("versionFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}
