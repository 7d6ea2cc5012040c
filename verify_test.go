package pixelmark

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelledger/pixelmark/payload"
)

// catalogFor registers a freshly watermarked image the way an embedding
// service would: record, fingerprint, and the stored PNG bytes.
func catalogFor(t *testing.T, p payload.Payload, marked image.Image) *fakeCatalog {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, marked))
	cat := newFakeCatalog()
	cat.add(CatalogRecord{
		ShortID:     p.ShortID,
		Payload:     p,
		Fingerprint: Fingerprint(marked),
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, buf.Bytes())
	return cat
}

func TestVerifyCleanUpload(t *testing.T) {
	w := mustNew(t, WithWorkers(4))
	p := samplePayload()
	marked, _, err := w.Embed(context.Background(), textureImage(512, 512), p)
	require.NoError(t, err)
	cat := catalogFor(t, p, marked)

	report, err := w.Verify(context.Background(), marked, cat)
	require.NoError(t, err)
	require.True(t, report.WatermarkFound())
	assert.True(t, report.Extraction.Found)
	assert.Equal(t, MethodExact, report.Resolution.Method)
	assert.Equal(t, 100.0, report.Resolution.Confidence)
	assert.Equal(t, "Alice", report.Resolution.Record.Payload.Owner)

	require.NotNil(t, report.Verdict)
	assert.InDelta(t, 0, report.Verdict.Score, 1e-6)
	assert.False(t, report.Verdict.Tampered)
	assert.Equal(t, SeverityMinor, report.Verdict.Severity)
}

func TestVerifyJPEGRecompressed(t *testing.T) {
	// a strong embed must survive lossy recompression of the upload
	w := mustNew(t, WithEmbedStrength(70), WithWorkers(4))
	p := samplePayload()
	marked, _, err := w.Embed(context.Background(), textureImage(512, 512), p)
	require.NoError(t, err)
	cat := catalogFor(t, p, marked)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, marked, &jpeg.Options{Quality: 75}))
	upload, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)

	report, err := w.Verify(context.Background(), upload, cat)
	require.NoError(t, err)
	require.True(t, report.WatermarkFound())
	assert.Equal(t, "Alice", report.Resolution.Record.Payload.Owner)
	assert.Equal(t, p.ShortID, report.Resolution.Record.ShortID)

	require.NotNil(t, report.Verdict)
	assert.Greater(t, report.Verdict.Score, 0.0)
	assert.LessOrEqual(t, report.Verdict.Score, 100.0)
}

func TestVerifyUnwatermarked(t *testing.T) {
	w := mustNew(t, WithWorkers(4))
	cat := newFakeCatalog()
	cat.add(CatalogRecord{ShortID: "8ea01208bce4", CreatedAt: time.Now()}, nil)

	report, err := w.Verify(context.Background(), textureImage(256, 256), cat)
	require.NoError(t, err)
	assert.False(t, report.WatermarkFound())
	assert.False(t, report.Extraction.Found)
	assert.Nil(t, report.Resolution)
	assert.Nil(t, report.Verdict)
}

func TestVerifyNoCatalogMatch(t *testing.T) {
	w := mustNew(t, WithWorkers(4))
	p := samplePayload()
	marked, _, err := w.Embed(context.Background(), textureImage(512, 512), p)
	require.NoError(t, err)

	// unrelated record: dissimilar id and a fingerprint far from the upload
	cat := newFakeCatalog()
	cat.add(CatalogRecord{
		ShortID:     "000000000000",
		Fingerprint: farFingerprint(marked),
		CreatedAt:   time.Now(),
	}, nil)

	report, err := w.Verify(context.Background(), marked, cat)
	require.NoError(t, err)
	assert.True(t, report.Extraction.Found)
	assert.False(t, report.WatermarkFound())
	assert.Nil(t, report.Verdict)
}

func TestVerifyCatalogError(t *testing.T) {
	w := mustNew(t, WithWorkers(4))
	p := samplePayload()
	marked, _, err := w.Embed(context.Background(), textureImage(512, 512), p)
	require.NoError(t, err)

	cat := newFakeCatalog()
	cat.listErr = errors.New("store down")
	_, err = w.Verify(context.Background(), marked, cat)
	assert.ErrorIs(t, err, cat.listErr)
}
