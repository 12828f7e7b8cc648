package services

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luabreak/internal/logger"
	"luabreak/internal/testutils"
	"luabreak/pkg/breaktypes"
)

func newProxyService(t *testing.T) *BreakpointProxyService {
	t.Helper()
	svc := NewBreakpointProxyService()
	require.NoError(t, svc.Initialize())
	return svc
}

func TestBreakpointProxyService_NotInitialized(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()

	svc := NewBreakpointProxyService()
	_, err := svc.Attach(sess)
	assert.Error(t, err)
}

func TestAttach_CreatesSentinelBreakpoint(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.NotEmpty(t, m.Handle())
	enabled, exists := sess.Dbg.QueryBreakpoint(m.Handle())
	assert.True(t, exists)
	assert.True(t, enabled, "interactive sessions start with the trigger enabled")
	assert.True(t, m.Active())

	assert.Same(t, m, svc.ManagerFor(sess))
}

func TestAttach_NonInteractiveStartsDisabled(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)

	enabled, exists := sess.Dbg.QueryBreakpoint(m.Handle())
	assert.True(t, exists, "the breakpoint exists even while disabled")
	assert.False(t, enabled)
	assert.False(t, m.Active())
}

func TestAttach_Twice(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	svc := newProxyService(t)

	_, err := svc.Attach(sess)
	require.NoError(t, err)

	_, err = svc.Attach(sess)
	assert.Error(t, err)
}

func TestAttach_SessionsAreIndependent(t *testing.T) {
	a := testutils.NewMockSession()
	defer a.Close()
	b := testutils.NewMockSession()
	defer b.Close()
	svc := newProxyService(t)

	ma, err := svc.Attach(a)
	require.NoError(t, err)
	mb, err := svc.Attach(b)
	require.NoError(t, err)

	require.NoError(t, ma.Enable())
	require.NoError(t, mb.Disable())

	assert.True(t, ma.Active())
	assert.False(t, mb.Active())
}

func TestProxyAction_RequestsBreakOnlyWhenGuardSet(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	_, err := svc.Attach(sess)
	require.NoError(t, err)

	require.NoError(t, sess.Dbg.Intercept(breaktypes.SentinelCommandName))
	assert.Equal(t, int64(0), sess.Dbg.BreaksRequested(), "no break without the guard")

	sess.SetConditionMet(true)
	require.NoError(t, sess.Dbg.Intercept(breaktypes.SentinelCommandName))
	assert.Equal(t, int64(1), sess.Dbg.BreaksRequested())
}

func TestProxyManager_SelfHealsAfterExternalRemoval(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)
	oldHandle := m.Handle()

	logBuf := &bytes.Buffer{}
	logger.SetOutput(logBuf)
	defer logger.SetOutput(os.Stderr)

	require.NoError(t, sess.Dbg.RemoveBreakpoint(oldHandle))

	newHandle := m.Handle()
	assert.NotEqual(t, oldHandle, newHandle)
	enabled, exists := sess.Dbg.QueryBreakpoint(newHandle)
	assert.True(t, exists, "the breakpoint must be recreated before the next trigger call")
	assert.True(t, enabled)
	assert.Contains(t, logBuf.String(), "removed externally")
}

func TestProxyManager_SelfHealRestoresDisabledState(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)
	require.False(t, m.Active())

	require.NoError(t, sess.Dbg.RemoveBreakpoint(m.Handle()))

	enabled, exists := sess.Dbg.QueryBreakpoint(m.Handle())
	assert.True(t, exists)
	assert.False(t, enabled, "recreation restores the previous enabled state")
}

func TestProxyManager_IgnoresRemovalOfOtherBreakpoints(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)
	handle := m.Handle()

	otherID, err := sess.Dbg.RegisterBreakpoint("debug.enable", func() (bool, error) { return false, nil })
	require.NoError(t, err)
	require.NoError(t, sess.Dbg.RemoveBreakpoint(otherID))

	assert.Equal(t, handle, m.Handle(), "unrelated removals must not touch the proxy breakpoint")
}

func TestProxyManager_EnableDisable(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)

	require.NoError(t, m.Disable())
	assert.False(t, m.Active())

	require.NoError(t, m.Enable())
	assert.True(t, m.Active())
}

func TestDetach_RemovesBreakpointWithoutResurrection(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	sess.SetInteractive(true)
	svc := newProxyService(t)

	m, err := svc.Attach(sess)
	require.NoError(t, err)
	handle := m.Handle()

	require.NoError(t, svc.Detach(sess))

	_, exists := sess.Dbg.QueryBreakpoint(handle)
	assert.False(t, exists, "teardown removal must not self-heal")
	assert.Nil(t, svc.ManagerFor(sess))
	assert.Equal(t, handle, m.Handle(), "no recreation happened during teardown")
}

func TestDetach_UnattachedSession(t *testing.T) {
	sess := testutils.NewMockSession()
	defer sess.Close()
	svc := newProxyService(t)

	assert.NoError(t, svc.Detach(sess))
}
