// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/mmstudyabroad/counselor-bot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/mmstudyabroad/counselor-bot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/mmstudyabroad/counselor-bot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the release identifier reported to error tracking,
// "dev" for unversioned builds.
func Release() string {
	switch {
	case Version != "":
		return Version
	case Commit != "":
		return Commit
	default:
		return "dev"
	}
}

// String returns a one-line description for --version output.
func String() string {
	s := Release()
	if Commit != "" && Commit != s {
		s += " (" + Commit + ")"
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s + " " + runtime.Version()
}

// Collector exposes the build metadata as a constant gauge.
func Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "counselor_build_info",
		Help: "Build metadata; value is always 1",
		ConstLabels: prometheus.Labels{
			"version":    Release(),
			"commit":     Commit,
			"build_date": BuildDate,
		},
	}, func() float64 { return 1 })
}
