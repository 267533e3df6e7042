// Package version reports which build of solship is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"text/tabwriter"
	"time"
)

// Version is the release of solship. Release builds override it with
// -ldflags "-X github.com/crytic/solship/version.Version=<release>".
var Version = "0.1.0"

// evmModulePath is the module providing transaction signing, ABI encoding and the JSON-RPC client.
const evmModulePath = "github.com/crytic/medusa-geth"

// Info describes a build of solship.
type Info struct {
	// Version is the release.
	Version string

	// Commit is the VCS revision the binary was built from, if known.
	Commit string

	// CommitTime is when Commit was made. Zero if unknown.
	CommitTime time.Time

	// Modified indicates the working tree had uncommitted changes at build time.
	Modified bool

	// GoVersion is the Go toolchain used for the build.
	GoVersion string

	// Platform is the target OS and architecture.
	Platform string

	// EVMLibrary is the version of the EVM library linked into the binary, if known.
	EVMLibrary string
}

// GetInfo describes the running binary.
func GetInfo() Info {
	buildInfo, _ := debug.ReadBuildInfo()
	return infoFromBuild(buildInfo)
}

// infoFromBuild describes a build from its embedded build information, which may be nil.
func infoFromBuild(buildInfo *debug.BuildInfo) Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if buildInfo == nil {
		return info
	}

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Commit = setting.Value
		case "vcs.time":
			if commitTime, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				info.CommitTime = commitTime
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	for _, dep := range buildInfo.Deps {
		if dep.Path == evmModulePath {
			info.EVMLibrary = dep.Version
			if dep.Replace != nil {
				info.EVMLibrary = dep.Replace.Version
			}
		}
	}
	return info
}

// revision is the abbreviated commit, marked when the tree was modified.
func (i Info) revision() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit != "" && i.Modified {
		commit += "-dirty"
	}
	return commit
}

// Short is the one-line form used for --version.
func (i Info) Short() string {
	if revision := i.revision(); revision != "" {
		return i.Version + "+" + revision
	}
	return i.Version
}

// String is the multi-line form printed by the version command.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "solship %s\n", i.Version)

	w := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', 0)
	if revision := i.revision(); revision != "" {
		fmt.Fprintf(w, "  commit:\t%s\n", revision)
	}
	if !i.CommitTime.IsZero() {
		fmt.Fprintf(w, "  committed:\t%s\n", i.CommitTime.UTC().Format(time.DateTime))
	}
	if i.EVMLibrary != "" {
		fmt.Fprintf(w, "  evm library:\t%s\n", i.EVMLibrary)
	}
	fmt.Fprintf(w, "  go:\t%s\n", i.GoVersion)
	fmt.Fprintf(w, "  platform:\t%s\n", i.Platform)
	_ = w.Flush()
	return sb.String()
}
