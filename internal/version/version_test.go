package version

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfo_LdflagsWin(t *testing.T) {
	oldV, oldC, oldT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldT })

	Version, GitCommit, BuildTime = "v1.2.0", "0123456789abcdef", "2024-05-01T10:00:00Z"
	info := Info()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.True(t, info.IsRelease())
	assert.Equal(t, "v1.2.0 (0123456)", info.Short())
	assert.Contains(t, info.Detailed(), "Commit: 0123456789abcdef")
	assert.Contains(t, info.Detailed(), "Built: 2024-05-01T10:00:00Z")
}

func TestBuildInfo_Short(t *testing.T) {
	tests := []struct {
		info BuildInfo
		want string
	}{
		{BuildInfo{Version: "dev", GitCommit: "unknown"}, "dev"},
		{BuildInfo{Version: "dev-abcdef1", GitCommit: "abcdef123"}, "dev-abcdef1"},
		{BuildInfo{Version: "v0.1.0", GitCommit: "abc"}, "v0.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Short())
		})
	}
	assert.False(t, (&BuildInfo{Version: "dev-abc"}).IsRelease())
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2023, parseTime("2023-01-02 03:04:05").Year())
}
