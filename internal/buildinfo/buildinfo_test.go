package buildinfo

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRelease(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version, Commit = "", ""
	if got := Release(); got != "dev" {
		t.Errorf("Release() = %q, want dev", got)
	}

	Commit = "abc1234"
	if got := Release(); got != "abc1234" {
		t.Errorf("Release() = %q, want commit", got)
	}

	Version = "v1.2.0"
	if got := Release(); got != "v1.2.0" {
		t.Errorf("Release() = %q, want version", got)
	}
	if got := String(); !strings.HasPrefix(got, "v1.2.0 (abc1234)") {
		t.Errorf("String() = %q", got)
	}
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(Collector())

	if n, err := testutil.GatherAndCount(reg, "counselor_build_info"); err != nil || n != 1 {
		t.Errorf("GatherAndCount = %d, %v; want 1", n, err)
	}
}
