package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/report"
	"github.com/orderprofit/backend/internal/domain/shared"
	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// CSVContentType is the media type of rendered exports
const CSVContentType = "text/csv; charset=utf-8"

// ExportStorage stores rendered exports and issues download links
type ExportStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ExportResult is a rendered export, uploaded when requested
type ExportResult struct {
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Rows        int       `json:"rows"`
	Body        []byte    `json:"-"`
	Key         string    `json:"key,omitempty"`
	URL         string    `json:"url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

// Uploaded reports whether the export was written to storage
func (r *ExportResult) Uploaded() bool {
	return r.Key != ""
}

// ExportService renders profit rows as CSV and optionally stores them
type ExportService struct {
	storage ExportStorage
	prefix  string
	linkTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates an export service. storage may be nil when no
// object store is configured; uploads then fail with ErrServiceUnavailable.
func NewExportService(storage ExportStorage, prefix string, linkTTL time.Duration, zapLogger *zap.Logger) *ExportService {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &ExportService{
		storage: storage,
		prefix:  strings.Trim(prefix, "/"),
		linkTTL: linkTTL,
		logger:  zapLogger.Named("export"),
		now:     time.Now,
	}
}

// Export renders rows as CSV. With upload set the file is stored under
// <prefix>/<yyyy>/<mm>/<uuid>.csv and a presigned download URL is returned.
func (s *ExportService) Export(ctx context.Context, rows []profit.ProfitedOrder, upload bool) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "Export")
	defer span.End()
	telemetry.SetAttributes(span, "export.rows", len(rows), "export.upload", upload)

	if upload && s.storage == nil {
		err := fmt.Errorf("%w: export storage is not configured", shared.ErrServiceUnavailable)
		telemetry.RecordError(span, err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rows); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render csv: %w", err)
	}

	now := s.now().UTC()
	id := uuid.New().String()
	result := &ExportResult{
		FileName:    fmt.Sprintf("profit-%s-%s.csv", now.Format("20060102"), id[:8]),
		ContentType: CSVContentType,
		Rows:        len(rows),
		Body:        buf.Bytes(),
	}
	if !upload {
		return result, nil
	}

	key := s.objectKey(now, id)
	if err := s.storage.Put(ctx, key, result.Body, CSVContentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("upload export: %w", err)
	}
	link, expiresAt, err := s.storage.PresignDownload(ctx, key, s.linkTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("presign export: %w", err)
	}

	result.Key = key
	result.URL = link
	result.ExpiresAt = expiresAt
	s.logger.Info("Export uploaded",
		zap.String("key", key),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(result.Body)),
	)
	return result, nil
}

func (s *ExportService) objectKey(now time.Time, id string) string {
	name := fmt.Sprintf("%04d/%02d/%s.csv", now.Year(), int(now.Month()), id)
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
