package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoFromBuild(t *testing.T) {
	info := infoFromBuild(&debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.9.1"},
			{Path: evmModulePath, Version: "v0.0.0-20250423141023-d818338d6925"},
		},
	})
	assert.Equal(t, Version, info.Version)
	assert.True(t, info.Modified)
	assert.Equal(t, "v0.0.0-20250423141023-d818338d6925", info.EVMLibrary)
	assert.Equal(t, Version+"+0123456-dirty", info.Short())
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)

	output := info.String()
	assert.True(t, strings.HasPrefix(output, "solship "+Version+"\n"))
	assert.Contains(t, output, "0123456-dirty")
	assert.Contains(t, output, "2024-05-01 10:00:00")
	assert.Contains(t, output, "evm library: v0.0.0-20250423141023-d818338d6925")
}

func TestInfoWithoutBuildInfo(t *testing.T) {
	info := infoFromBuild(nil)
	assert.Equal(t, Version, info.Short())
	assert.True(t, info.CommitTime.IsZero())
	assert.NotContains(t, info.String(), "commit")
}
