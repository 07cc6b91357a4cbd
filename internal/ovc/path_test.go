package ovc

import "testing"

func TestRemotePaths(t *testing.T) {
	tests := []struct {
		dir, name  string
		abs        bool
		joined     string
		parentName string
	}{
		{"/opt/app/config", "app.conf", true, "/opt/app/config/app.conf", "config"},
		{"/", "app.conf", true, "/app.conf", "/"},
		{`C:\PLC\Config`, "recipe.csv", true, `C:\PLC\Config\recipe.csv`, "Config"},
		{`\\plc01\share`, "a.ini", true, `\\plc01\share\a.ini`, "share"},
		{"relative/dir", "x", false, "relative/dir/x", "dir"},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			if got := isAbsRemotePath(tt.dir); got != tt.abs {
				t.Errorf("isAbsRemotePath(%q) = %v, want %v", tt.dir, got, tt.abs)
			}
			if got := joinRemotePath(tt.dir, tt.name); got != tt.joined {
				t.Errorf("joinRemotePath() = %q, want %q", got, tt.joined)
			}
			if got := baseRemotePath(tt.dir); got != tt.parentName {
				t.Errorf("baseRemotePath() = %q, want %q", got, tt.parentName)
			}
		})
	}
}

func TestCleanRemotePath(t *testing.T) {
	tests := map[string]string{
		" /opt/app/ ": "/opt/app",
		"/":          "/",
		`C:\`:        `C:\`,
		`C:\PLC\`:    `C:\PLC`,
	}
	for in, want := range tests {
		if got := cleanRemotePath(in); got != want {
			t.Errorf("cleanRemotePath(%q) = %q, want %q", in, got, want)
		}
	}
}
