package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreBuildInfo(t *testing.T) {
	t.Helper()
	v, c, d := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		SetBuildInfo(v, c, d)
	})
}

func TestValidateVersion(t *testing.T) {
	restoreBuildInfo(t)

	SetBuildInfo("0.1.0", "unknown", "unknown")
	assert.NoError(t, ValidateVersion())

	SetBuildInfo("not-a-version", "unknown", "unknown")
	assert.Error(t, ValidateVersion())
}

func TestGetBaseVersion(t *testing.T) {
	restoreBuildInfo(t)

	SetBuildInfo("0.1.0+42.abc1234", "unknown", "unknown")
	assert.Equal(t, "0.1.0", GetBaseVersion())

	SetBuildInfo("garbage", "unknown", "unknown")
	assert.Equal(t, "garbage", GetBaseVersion(), "unparseable versions pass through")
}

func TestGetInfo(t *testing.T) {
	restoreBuildInfo(t)

	SetBuildInfo("1.2.3", "abcdef1234567890", "2026-08-31")
	info, err := GetInfo()
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abcdef1234567890", info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
	require.NotNil(t, info.SemVer)
	assert.Equal(t, uint64(1), info.SemVer.Major())
}

func TestGetFormattedVersion(t *testing.T) {
	restoreBuildInfo(t)

	SetBuildInfo("0.1.0", "abcdef1234567890", "2026-08-31")
	got := GetFormattedVersion()
	assert.Contains(t, got, "luabreak v0.1.0")
	assert.Contains(t, got, "commit abcdef1")
	assert.Contains(t, got, "built 2026-08-31")

	SetBuildInfo("0.1.0", "unknown", "unknown")
	got = GetFormattedVersion()
	assert.Equal(t, "luabreak v0.1.0", got)
}

func TestIsDevelopment(t *testing.T) {
	restoreBuildInfo(t)

	SetBuildInfo("0.1.0", "unknown", "unknown")
	assert.True(t, IsDevelopment())

	SetBuildInfo("0.1.0", "abcdef1", "2026-08-31")
	assert.False(t, IsDevelopment())
}
