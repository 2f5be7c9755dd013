package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/opname"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
	"github.com/noah-isme/proasset-api/pkg/export"
)

type auditStore interface {
	Assets() []models.Asset
	StartAudit(ctx context.Context, auditorName, actor string) (models.AuditSession, error)
	ScanAudit(ctx context.Context, identifier, actor string) (opname.ScanResult, error)
	CompleteAudit(ctx context.Context, actor string) (models.AuditSession, error)
	CancelAudit(ctx context.Context) (models.AuditSession, error)
	CurrentAudit() (models.AuditSession, bool)
	AuditSession(id string) (models.AuditSession, bool)
	AuditSessions() []models.AuditSession
	HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool
}

type scanRecorder interface {
	RecordScan(result opname.ScanResult)
}

// StartAuditRequest opens a stock opname session.
type StartAuditRequest struct {
	AuditorName string `json:"auditor_name" validate:"required"`
}

// ScanRequest carries one decoded barcode or asset id.
type ScanRequest struct {
	Code string `json:"code" validate:"required"`
}

// AuditSessionFilter narrows the session history.
type AuditSessionFilter struct {
	Status *models.AuditSessionStatus
}

var auditReportHeaders = []string{"Asset Name", "Barcode", "Category", "Status in Audit", "Current Price"}

// AuditService runs stock opname sessions and renders their reports.
type AuditService struct {
	store     auditStore
	metrics   scanRecorder
	validator *validator.Validate
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewAuditService constructs an AuditService. metrics may be nil.
func NewAuditService(store auditStore, metrics scanRecorder, validate *validator.Validate, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuditService{
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewLandscapePDFExporter(),
	}
}

// Start opens a new session and makes it current.
func (s *AuditService) Start(ctx context.Context, claims *models.JWTClaims, req StartAuditRequest) (*models.AuditSessionView, error) {
	req.AuditorName = strings.TrimSpace(req.AuditorName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "auditor name is required")
	}
	session, err := s.store.StartAudit(ctx, req.AuditorName, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "audit session not found")
	}
	s.logger.Info("audit session started", zap.String("session_id", session.ID), zap.String("auditor", session.AuditorName))
	view := s.view(session, true)
	return &view, nil
}

// Scan matches code against the asset collection and records it on the current session.
// An unknown code, or any code while no session is current, is a successful call with Found false.
func (s *AuditService) Scan(ctx context.Context, claims *models.JWTClaims, req ScanRequest) (*models.ScanOutcome, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "scan code is required")
	}
	result, err := s.store.ScanAudit(ctx, req.Code, claims.Actor())
	if err != nil && result.Asset == nil {
		return nil, mapStoreError(err, "no active audit session")
	}
	if s.metrics != nil {
		s.metrics.RecordScan(result)
	}

	outcome := &models.ScanOutcome{Found: result.Found, Duplicate: result.Duplicate}
	if result.Asset != nil {
		item := auditItem(*result.Asset)
		outcome.Asset = &item
	}
	if session, ok := s.store.CurrentAudit(); ok {
		view := s.view(session, false)
		outcome.Session = &view
	}
	return outcome, mapStoreError(err, "no active audit session")
}

// Complete closes the current session, recording every unscanned asset as missing.
func (s *AuditService) Complete(ctx context.Context, claims *models.JWTClaims) (*models.AuditSessionView, error) {
	session, err := s.store.CompleteAudit(ctx, claims.Actor())
	if err != nil && session.ID == "" {
		return nil, mapStoreError(err, "no active audit session")
	}
	s.logger.Info("audit session completed",
		zap.String("session_id", session.ID),
		zap.Int("scanned", len(session.ScannedAssets)),
		zap.Int("missing", len(session.MissingAssets)),
	)
	view := s.view(session, false)
	return &view, mapStoreError(err, "no active audit session")
}

// Cancel abandons the current session. The session record itself stays In Progress.
func (s *AuditService) Cancel(ctx context.Context) (*models.AuditSessionView, error) {
	session, err := s.store.CancelAudit(ctx)
	if err != nil {
		return nil, mapStoreError(err, "no active audit session")
	}
	view := s.view(session, false)
	return &view, nil
}

// Current returns the active session with its unscanned assets.
func (s *AuditService) Current() (*models.AuditSessionView, error) {
	session, ok := s.store.CurrentAudit()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active audit session")
	}
	view := s.view(session, true)
	return &view, nil
}

// Sessions lists the session history newest first.
func (s *AuditService) Sessions(filter AuditSessionFilter) []models.AuditSessionView {
	sessions := s.store.AuditSessions()
	out := make([]models.AuditSessionView, 0, len(sessions))
	for _, session := range sessions {
		if filter.Status != nil && session.Status != *filter.Status {
			continue
		}
		out = append(out, s.view(session, false))
	}
	return out
}

// Report summarises a session and lists the details of its missing assets.
func (s *AuditService) Report(id string) (*models.AuditReport, error) {
	session, ok := s.store.AuditSession(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "audit session not found")
	}
	missing := toSet(session.MissingAssets)
	items := make([]models.AuditItem, 0, len(session.MissingAssets))
	for _, asset := range s.store.Assets() {
		if _, ok := missing[asset.ID]; ok {
			items = append(items, auditItem(asset))
		}
	}
	return &models.AuditReport{
		Session:      s.view(session, false),
		ScannedCount: len(session.ScannedAssets),
		MissingCount: len(session.MissingAssets),
		Missing:      items,
	}, nil
}

// ReportCSV renders the session detail export. Price is blanked for roles that may not view it.
func (s *AuditService) ReportCSV(role models.UserRole, id string) ([]byte, string, error) {
	session, data, err := s.reportDataset(role, id)
	if err != nil {
		return nil, "", err
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render audit report")
	}
	return out, reportFilename(session, "csv"), nil
}

// ReportPDF renders the printable session report.
func (s *AuditService) ReportPDF(role models.UserRole, id string) ([]byte, string, error) {
	session, data, err := s.reportDataset(role, id)
	if err != nil {
		return nil, "", err
	}
	out, err := s.pdf.Render(data, "Audit Session Report")
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render audit report")
	}
	return out, reportFilename(session, "pdf"), nil
}

func (s *AuditService) reportDataset(role models.UserRole, id string) (models.AuditSession, export.Dataset, error) {
	session, ok := s.store.AuditSession(id)
	if !ok {
		return models.AuditSession{}, export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, "audit session not found")
	}
	showPrice := s.store.HasPermission(role, permission.FeatureAssets, permission.ActionView, permission.FieldPrice)

	scanned := toSet(session.ScannedAssets)
	missing := toSet(session.MissingAssets)
	rows := make([]map[string]string, 0, len(scanned)+len(missing))
	for _, asset := range s.store.Assets() {
		_, found := scanned[asset.ID]
		_, lost := missing[asset.ID]
		if !found && !lost {
			continue
		}
		status := "MISSING"
		if found {
			status = "FOUND"
		}
		barcode := "N/A"
		if asset.Barcode != nil && *asset.Barcode != "" {
			barcode = *asset.Barcode
		}
		price := ""
		if showPrice {
			price = strconv.FormatFloat(asset.Price, 'f', -1, 64)
		}
		rows = append(rows, map[string]string{
			"Asset Name":      asset.Name,
			"Barcode":         barcode,
			"Category":        asset.Category,
			"Status in Audit": status,
			"Current Price":   price,
		})
	}

	return session, export.Dataset{
		Preamble: []string{
			"Audit Session Report - " + session.StartDate.Format(purchaseDateLayout),
			"Auditor: " + session.AuditorName,
			fmt.Sprintf("Accuracy: %.1f%%", opname.Accuracy(session)),
		},
		Headers: auditReportHeaders,
		Rows:    rows,
	}, nil
}

func (s *AuditService) view(session models.AuditSession, withRemaining bool) models.AuditSessionView {
	view := models.AuditSessionView{
		AuditSession: session,
		Progress:     opname.Progress(session),
		Accuracy:     opname.Accuracy(session),
	}
	if withRemaining {
		remaining := opname.Remaining(session, s.store.Assets())
		view.Remaining = make([]models.AuditItem, 0, len(remaining))
		for _, asset := range remaining {
			view.Remaining = append(view.Remaining, auditItem(asset))
		}
	}
	return view
}

func auditItem(asset models.Asset) models.AuditItem {
	return models.AuditItem{
		ID:         asset.ID,
		Name:       asset.Name,
		Category:   asset.Category,
		LocationID: asset.LocationID,
		Barcode:    asset.Barcode,
	}
}

func reportFilename(session models.AuditSession, ext string) string {
	return fmt.Sprintf("audit_report_%s_%s.%s", session.ID, session.StartDate.Format(purchaseDateLayout), ext)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
