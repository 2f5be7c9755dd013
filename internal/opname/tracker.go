// Package opname implements the stock opname (physical inventory) session state machine.
package opname

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/proasset-api/internal/models"
)

var (
	// ErrAuditorRequired is returned when a session is started without an auditor.
	ErrAuditorRequired = errors.New("auditor name is required")
	// ErrNoActiveSession is returned when an operation needs a current session and none is set.
	ErrNoActiveSession = errors.New("no active audit session")
)

// ScanResult describes the outcome of a single barcode or id scan.
type ScanResult struct {
	Found     bool          `json:"found"`
	Duplicate bool          `json:"duplicate"`
	Asset     *models.Asset `json:"asset,omitempty"`
}

// Tracker keeps every audit session and the pointer to the current one.
// It is not safe for concurrent use; callers serialise access.
type Tracker struct {
	sessions  []models.AuditSession
	currentID string

	now   func() time.Time
	newID func() string
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// NewTracker constructs an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the tracker state with persisted sessions ordered oldest first. A currentID that does not resolve to an
// in-progress session is dropped.
func (t *Tracker) Load(sessions []models.AuditSession, currentID string) {
	t.sessions = make([]models.AuditSession, 0, len(sessions))
	for _, s := range sessions {
		t.sessions = append(t.sessions, s.Clone())
	}
	t.currentID = ""
	if idx := t.indexOf(currentID); idx >= 0 && t.sessions[idx].Status == models.AuditStatusInProgress {
		t.currentID = currentID
	}
}

// Reset forgets every session and clears the pointer.
func (t *Tracker) Reset() {
	t.sessions = nil
	t.currentID = ""
}

// Start opens a new session sized to the current asset count and makes it current. A previously
// current session is left as it was.
func (t *Tracker) Start(auditorName string, assetCount int) (models.AuditSession, error) {
	auditorName = strings.TrimSpace(auditorName)
	if auditorName == "" {
		return models.AuditSession{}, ErrAuditorRequired
	}

	start := t.now().UTC()
	session := models.AuditSession{
		ID:                 t.newID(),
		Name:               "Audit " + start.Format(time.RFC3339),
		StartDate:          start,
		Status:             models.AuditStatusInProgress,
		TotalAssetsToCheck: assetCount,
		ScannedAssets:      []string{},
		MissingAssets:      []string{},
		AuditorName:        auditorName,
	}
	t.sessions = append(t.sessions, session)
	t.currentID = session.ID
	return session.Clone(), nil
}

// Scan resolves identifier against assets and records it on the current session. Barcodes are
// matched before ids. The returned bool reports whether the session changed. Without a
// current session every identifier is reported as not found.
func (t *Tracker) Scan(identifier string, assets []models.Asset) (ScanResult, bool, error) {
	idx := t.indexOf(t.currentID)
	if idx < 0 {
		return ScanResult{Found: false}, false, nil
	}

	asset, ok := Match(assets, identifier)
	if !ok {
		return ScanResult{Found: false}, false, nil
	}

	session := &t.sessions[idx]
	for _, id := range session.ScannedAssets {
		if id == asset.ID {
			return ScanResult{Found: true, Duplicate: true, Asset: &asset}, false, nil
		}
	}
	session.ScannedAssets = append(session.ScannedAssets, asset.ID)
	return ScanResult{Found: true, Asset: &asset}, true, nil
}

// Complete closes the current session. Every asset not scanned is recorded as missing.
func (t *Tracker) Complete(assets []models.Asset) (models.AuditSession, error) {
	idx := t.indexOf(t.currentID)
	if idx < 0 {
		return models.AuditSession{}, ErrNoActiveSession
	}

	session := &t.sessions[idx]
	scanned := make(map[string]struct{}, len(session.ScannedAssets))
	for _, id := range session.ScannedAssets {
		scanned[id] = struct{}{}
	}
	missing := make([]string, 0, len(assets))
	for _, asset := range assets {
		if _, ok := scanned[asset.ID]; !ok {
			missing = append(missing, asset.ID)
		}
	}

	end := t.now().UTC()
	session.MissingAssets = missing
	session.Status = models.AuditStatusCompleted
	session.EndDate = &end
	t.currentID = ""
	return session.Clone(), nil
}

// Cancel clears the current pointer. The session record keeps its In Progress status.
func (t *Tracker) Cancel() (models.AuditSession, error) {
	idx := t.indexOf(t.currentID)
	if idx < 0 {
		return models.AuditSession{}, ErrNoActiveSession
	}
	t.currentID = ""
	return t.sessions[idx].Clone(), nil
}

// Current returns the current session when one is set.
func (t *Tracker) Current() (models.AuditSession, bool) {
	idx := t.indexOf(t.currentID)
	if idx < 0 {
		return models.AuditSession{}, false
	}
	return t.sessions[idx].Clone(), true
}

// CurrentID returns the current session id or an empty string.
func (t *Tracker) CurrentID() string {
	return t.currentID
}

// Get returns the session with id.
func (t *Tracker) Get(id string) (models.AuditSession, bool) {
	idx := t.indexOf(id)
	if idx < 0 {
		return models.AuditSession{}, false
	}
	return t.sessions[idx].Clone(), true
}

// Sessions returns every session, newest first.
func (t *Tracker) Sessions() []models.AuditSession {
	out := make([]models.AuditSession, 0, len(t.sessions))
	for i := len(t.sessions) - 1; i >= 0; i-- {
		out = append(out, t.sessions[i].Clone())
	}
	return out
}

func (t *Tracker) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range t.sessions {
		if t.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// Match finds the asset with the given barcode, falling back to an id match. The first asset in
// collection order wins when several share a barcode.
func Match(assets []models.Asset, identifier string) (models.Asset, bool) {
	if identifier == "" {
		return models.Asset{}, false
	}
	for _, asset := range assets {
		if asset.Barcode != nil && *asset.Barcode == identifier {
			return asset, true
		}
	}
	for _, asset := range assets {
		if asset.ID == identifier {
			return asset, true
		}
	}
	return models.Asset{}, false
}

// Progress is the scanned fraction of the session, 0 when nothing was to be checked.
func Progress(session models.AuditSession) float64 {
	if session.TotalAssetsToCheck <= 0 {
		return 0
	}
	return float64(len(session.ScannedAssets)) / float64(session.TotalAssetsToCheck)
}

// Accuracy is Progress expressed as a percentage.
func Accuracy(session models.AuditSession) float64 {
	return Progress(session) * 100
}

// Remaining lists the assets the session has not scanned yet.
func Remaining(session models.AuditSession, assets []models.Asset) []models.Asset {
	scanned := make(map[string]struct{}, len(session.ScannedAssets))
	for _, id := range session.ScannedAssets {
		scanned[id] = struct{}{}
	}
	out := make([]models.Asset, 0, len(assets))
	for _, asset := range assets {
		if _, ok := scanned[asset.ID]; !ok {
			out = append(out, asset)
		}
	}
	return out
}
