package config

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionString(t *testing.T) {
	got := VersionString("logpulse-server")
	if !strings.HasPrefix(got, "logpulse-server "+Version) {
		t.Errorf("VersionString() = %q", got)
	}
	if !strings.HasSuffix(got, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("VersionString() missing platform: %q", got)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version != Version || info.GoVersion != runtime.Version() {
		t.Errorf("unexpected build info: %+v", info)
	}
	if info.Commit == "" || info.BuildTime == "" {
		t.Errorf("commit and build time must never be empty: %+v", info)
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef0123"); got != "0123456789ab" {
		t.Errorf("shortRevision() = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision() = %q", got)
	}
}
