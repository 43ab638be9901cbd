package bundle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/tmbridge/ai/mock"
	"github.com/poiesic/tmbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() catalogBatch {
	return catalogBatch{terminology: core.Siddha, offset: 8, entries: siddhaEntries()}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyEmbedder fails the first failures calls.
func flakyEmbedder(failures int, err error) (*mock.MockEmbedder, *int) {
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls <= failures {
			return nil, err
		}
		return mock.NewMockEmbedder().EmbedTexts(ctx, texts)
	}
	return embedder, &calls
}

func TestCatalogBatch(t *testing.T) {
	batch := testBatch()
	assert.Equal(t, "siddha[8-10]", batch.String())

	docs := batch.documents()
	require.Len(t, docs, 3)
	assert.Equal(t, batch.entries[1].Document(), docs[1])
}

func TestEmbedWithRetry_Success(t *testing.T) {
	embedder, calls := flakyEmbedder(0, nil)
	vectors, err := embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 3, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 1, *calls, "should succeed on first try")
}

func TestEmbedWithRetry_EventualSuccess(t *testing.T) {
	embedder, calls := flakyEmbedder(2, errors.New("temporary error"))
	vectors, err := embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 5, time.Millisecond)

	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 3, *calls)
}

func TestEmbedWithRetry_AllAttemptsFail(t *testing.T) {
	expectedErr := errors.New("persistent error")
	embedder, calls := flakyEmbedder(10, expectedErr)
	_, err := embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 3, time.Millisecond)

	require.ErrorIs(t, err, expectedErr, "should wrap the last error")
	assert.Contains(t, err.Error(), "siddha[8-10] failed after 3 attempts")
	assert.Equal(t, 3, *calls)
}

func TestEmbedWithRetry_CountMismatchIsNotRetried(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	_, err := embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 3, time.Millisecond)
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestEmbedWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil, errors.New("error")
	}

	_, err := embedWithRetry(ctx, discardLogger(), embedder, testBatch(), 10, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestEmbedWithRetry_Backoff(t *testing.T) {
	embedder, _ := flakyEmbedder(10, errors.New("error"))

	start := time.Now()
	_, _ = embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 3, 20*time.Millisecond)

	// 20ms + 40ms between the three attempts
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestEmbedWithRetry_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := embedWithRetry(context.Background(), discardLogger(), mock.NewMockEmbedder(), testBatch(), n, time.Millisecond)
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	}
}

func TestEmbedWithRetry_LogsBatchContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	embedder, _ := flakyEmbedder(1, errors.New("rate limited"))

	_, err := embedWithRetry(context.Background(), logger, embedder, testBatch(), 3, time.Millisecond)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "catalog batch embedding failed")
	assert.Contains(t, out, "catalog batch embedded after retry")
	assert.Contains(t, out, "terminology=siddha")
	assert.Contains(t, out, "offset=8")
	assert.Contains(t, out, "first_code=SP42")
	assert.Contains(t, out, "last_code=SA02")
	assert.Contains(t, out, `err="rate limited"`)
}

// entryEmbedder records the entries it was asked to embed.
type entryEmbedder struct {
	*mock.MockEmbedder
	codes []string
}

func (e *entryEmbedder) EmbedEntries(ctx context.Context, entries []*core.Entry) ([][]float32, error) {
	docs := make([]string, len(entries))
	for i, entry := range entries {
		e.codes = append(e.codes, entry.Code)
		docs[i] = entry.Document()
	}
	return e.MockEmbedder.EmbedTexts(ctx, docs)
}

func TestEmbedWithRetry_PrefersEntryEmbedder(t *testing.T) {
	embedder := &entryEmbedder{MockEmbedder: mock.NewMockEmbedder()}
	vectors, err := embedWithRetry(context.Background(), discardLogger(), embedder, testBatch(), 3, time.Millisecond)

	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, []string{"SP42", "SA01", "SA02"}, embedder.codes)
}
