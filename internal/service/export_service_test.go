package service

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/notabilis-api/internal/models"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
	"github.com/noah-isme/notabilis-api/pkg/storage"
)

func analyzedForTest(t *testing.T, content string) (*models.Analysis, models.ReportView) {
	t.Helper()
	svc := newAnalysisServiceForTest(nil, nil)
	analysis, _, err := svc.Analyze(context.Background(), Upload{Filename: "grades.csv", Content: strings.NewReader(content)})
	require.NoError(t, err)
	return analysis, svc.Report(analysis)
}

func newExportServiceForTest(t *testing.T, metrics *MetricsService) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	return NewExportService(cfg, store, signer, metrics, zap.NewNop(), nil, nil, nil), store
}

func TestExportServicePDF(t *testing.T) {
	metrics := NewMetricsService()
	svc, _ := newExportServiceForTest(t, metrics)
	analysis, _ := analyzedForTest(t, aliceAndBob)

	payload, err := svc.PDF(analysis)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
	assert.Equal(t, "report.pdf", svc.PDFFilename())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("pdf", outcomeOK)))
}

func TestExportServicePDFRejectsNonLatin1Names(t *testing.T) {
	metrics := NewMetricsService()
	svc, _ := newExportServiceForTest(t, metrics)
	analysis, _ := analyzedForTest(t, "Name,Quiz,Homework 1,Homework 2,Coef\n王芳,10,10,10,1\n")

	_, err := svc.PDF(analysis)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEncoding)
	assert.Contains(t, err.Error(), "王芳")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("pdf", appErrors.ErrEncoding.Code)))
}

func TestExportServiceCSVLayouts(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)
	analysis, view := analyzedForTest(t, aliceAndBob)

	table, err := svc.CSV(analysis, view, CSVLayoutTable)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(table)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Nom,Interro 1,Interro 2,Devoir 1,Devoir 2,Coef,quiz_average,overall_average,weighted_average,rank", lines[0])
	assert.Equal(t, "Alice,10,14,12,16,2,12,13.33,26.67,1", lines[1])

	compact, err := svc.CSV(analysis, view, CSVLayoutCompact)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(compact)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "identifier,quiz_average,overall_average,coefficient,weighted_average,rank", lines[0])
	assert.Equal(t, "Bob,8,9.33,1,9.33,2", lines[2])

	_, err = svc.CSV(analysis, view, "wide")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceChart(t *testing.T) {
	svc, _ := newExportServiceForTest(t, nil)
	_, view := analyzedForTest(t, aliceAndBob)

	png, err := svc.Chart(view.Chart)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestExportServiceTablePDF(t *testing.T) {
	metrics := NewMetricsService()
	svc, _ := newExportServiceForTest(t, metrics)
	_, view := analyzedForTest(t, aliceAndBob)

	payload, err := svc.TablePDF(view)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.exportsTotal.WithLabelValues("pdf_table", outcomeOK)))
}

func TestExportServiceStoreAndDownload(t *testing.T) {
	svc, store := newExportServiceForTest(t, nil)
	analysis, _ := analyzedForTest(t, aliceAndBob)

	stored, err := svc.Store(analysis)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.URL, "/api/v1/export/"))
	assert.Equal(t, "report.pdf", stored.Filename)

	info, err := os.Stat(store.Path(stored.RelativePath))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	download, err := svc.Download(stored.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "report.pdf", download.Filename)

	_, err = svc.Download(stored.Token + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestExportServiceStorageDisabled(t *testing.T) {
	svc := NewExportService(ExportConfig{}, nil, nil, nil, nil, nil, nil, nil)
	analysis, _ := analyzedForTest(t, aliceAndBob)

	assert.False(t, svc.StorageEnabled())
	_, err := svc.Store(analysis)
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
	_, err = svc.Download("token")
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestExportServiceCleanup(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(ExportConfig{ResultTTL: time.Minute}, store, storage.NewSignedURLSigner("secret", time.Hour), nil, zap.NewNop(), nil, nil, nil)
	analysis, _ := analyzedForTest(t, aliceAndBob)

	stored, err := svc.Store(analysis)
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(store.Path(stored.RelativePath), old, old))

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	_, err = svc.Download(stored.Token)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
