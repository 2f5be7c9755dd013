package opname

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
)

func strPtr(s string) *string { return &s }

func fixtureAssets() []models.Asset {
	return []models.Asset{
		{ID: "A1", Name: "Laptop", Barcode: strPtr("B1")},
		{ID: "A2", Name: "Desk"},
		{ID: "A3", Name: "Printer", Barcode: strPtr("B3")},
	}
}

func newTestTracker() *Tracker {
	seq := 0
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewTracker(
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("S%d", seq)
		}),
	)
}

func TestSessionLifecycle(t *testing.T) {
	tracker := newTestTracker()
	assets := fixtureAssets()

	session, err := tracker.Start("Alice", len(assets))
	require.NoError(t, err)
	assert.Equal(t, 3, session.TotalAssetsToCheck)
	assert.Equal(t, models.AuditStatusInProgress, session.Status)
	assert.Equal(t, "Audit 2024-03-01T09:00:00Z", session.Name)
	assert.Equal(t, "S1", tracker.CurrentID())

	res, changed, err := tracker.Scan("B1", assets)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, changed)
	assert.Equal(t, "A1", res.Asset.ID)

	res, changed, err = tracker.Scan("A2", assets)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, changed)

	res, changed, err = tracker.Scan("B1", assets)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Duplicate)
	assert.False(t, changed)

	res, changed, err = tracker.Scan("ZZZ", assets)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, changed)

	current, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, []string{"A1", "A2"}, []string(current.ScannedAssets))

	done, err := tracker.Complete(assets)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusCompleted, done.Status)
	assert.Equal(t, []string{"A3"}, []string(done.MissingAssets))
	require.NotNil(t, done.EndDate)
	assert.InDelta(t, 66.67, Accuracy(done), 0.01)
	assert.Empty(t, tracker.CurrentID())
}

func TestStartRequiresAuditor(t *testing.T) {
	tracker := newTestTracker()
	_, err := tracker.Start("  ", 3)
	assert.ErrorIs(t, err, ErrAuditorRequired)
	assert.Empty(t, tracker.Sessions())
}

func TestOperationsWithoutCurrentSession(t *testing.T) {
	tracker := newTestTracker()

	res, changed, err := tracker.Scan("B1", fixtureAssets())
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Asset)
	assert.False(t, changed)
	assert.Empty(t, tracker.Sessions())

	_, err = tracker.Complete(fixtureAssets())
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = tracker.Cancel()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCancelKeepsRecordInProgress(t *testing.T) {
	tracker := newTestTracker()
	_, err := tracker.Start("Bob", 2)
	require.NoError(t, err)

	cancelled, err := tracker.Cancel()
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusInProgress, cancelled.Status)
	assert.Empty(t, tracker.CurrentID())

	stored, ok := tracker.Get("S1")
	require.True(t, ok)
	assert.Equal(t, models.AuditStatusInProgress, stored.Status)
}

func TestStartWhileActiveReplacesPointer(t *testing.T) {
	tracker := newTestTracker()
	_, err := tracker.Start("Alice", 3)
	require.NoError(t, err)
	_, err = tracker.Start("Bob", 3)
	require.NoError(t, err)

	assert.Equal(t, "S2", tracker.CurrentID())
	first, ok := tracker.Get("S1")
	require.True(t, ok)
	assert.Equal(t, models.AuditStatusInProgress, first.Status)
	sessions := tracker.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "S2", sessions[0].ID)
}

func TestMatchPrefersBarcodeOverID(t *testing.T) {
	assets := []models.Asset{
		{ID: "X", Name: "by id"},
		{ID: "Y", Name: "by barcode", Barcode: strPtr("X")},
	}
	asset, ok := Match(assets, "X")
	require.True(t, ok)
	assert.Equal(t, "Y", asset.ID)

	_, ok = Match(assets, "")
	assert.False(t, ok)
}

func TestProgressWithNoAssets(t *testing.T) {
	session := models.AuditSession{TotalAssetsToCheck: 0}
	assert.Equal(t, 0.0, Progress(session))
	assert.Equal(t, 0.0, Accuracy(session))
}

func TestRemaining(t *testing.T) {
	session := models.AuditSession{ScannedAssets: []string{"A1"}}
	remaining := Remaining(session, fixtureAssets())
	require.Len(t, remaining, 2)
	assert.Equal(t, "A2", remaining[0].ID)
	assert.Equal(t, "A3", remaining[1].ID)
}

func TestLoadDropsStalePointer(t *testing.T) {
	tracker := newTestTracker()
	tracker.Load([]models.AuditSession{{ID: "old", Status: models.AuditStatusCompleted}}, "old")
	assert.Empty(t, tracker.CurrentID())

	tracker.Load([]models.AuditSession{{ID: "live", Status: models.AuditStatusInProgress}}, "live")
	assert.Equal(t, "live", tracker.CurrentID())
}
