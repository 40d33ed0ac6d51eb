package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	embedded := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		},
	}
	read := func() (*debug.BuildInfo, bool) { return embedded, true }

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "unstamped uses embedded",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			want: Info{Version: "v0.4.1", Commit: "abc123", Date: "2026-03-01T10:00:00Z"},
		},
		{
			name: "stamped wins",
			in:   Info{Version: "v1.0.0", Commit: "fff", Date: "2026-04-01"},
			want: Info{Version: "v1.0.0", Commit: "fff", Date: "2026-04-01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.in, read); got != tt.want {
				t.Errorf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveDevelAndMissing(t *testing.T) {
	in := Info{Version: "dev", Commit: "none", Date: "unknown"}

	devel := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}
	if got := resolve(in, devel); got != in {
		t.Errorf("(devel) build changed info: %+v", got)
	}

	missing := func() (*debug.BuildInfo, bool) { return nil, false }
	if got := resolve(in, missing); got != in {
		t.Errorf("missing build info changed info: %+v", got)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version ") {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.Contains(String(), "commit: ") {
		t.Errorf("String() = %q", String())
	}
}
