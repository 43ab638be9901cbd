package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
)

// catalogBatch is a contiguous run of catalog entries embedded in one call.
type catalogBatch struct {
	terminology core.Terminology
	offset      int
	entries     []*core.Entry
}

// documents returns the text embedded for each entry.
func (c catalogBatch) documents() []string {
	docs := make([]string, len(c.entries))
	for i, e := range c.entries {
		docs[i] = e.Document()
	}
	return docs
}

// String names the batch as terminology[first-last] by ordinal.
func (c catalogBatch) String() string {
	return fmt.Sprintf("%s[%d-%d]", c.terminology, c.offset, c.offset+len(c.entries)-1)
}

func (c catalogBatch) logAttrs() []any {
	attrs := []any{"terminology", c.terminology, "offset", c.offset, "size", len(c.entries)}
	if n := len(c.entries); n > 0 {
		attrs = append(attrs, "first_code", c.entries[0].Code, "last_code", c.entries[n-1].Code)
	}
	return attrs
}

// embedBatchOnce makes one embedding call, preferring the entry-aware path.
func embedBatchOnce(ctx context.Context, embedder ai.Embedder, batch catalogBatch, docs []string) ([][]float32, error) {
	if ee, ok := embedder.(ai.EntryEmbedder); ok {
		return ee.EmbedEntries(ctx, batch.entries)
	}
	return embedder.EmbedTexts(ctx, docs)
}

// embedWithRetry embeds the documents of batch, retrying failed calls with
// exponential backoff starting at baseDelay. A call that returns the wrong
// number of vectors fails at once. After maxAttempts failures the last
// embedder error is returned.
func embedWithRetry(ctx context.Context, logger *slog.Logger, embedder ai.Embedder, batch catalogBatch, maxAttempts int, baseDelay time.Duration) ([][]float32, error) {
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}

	log := logger.With(batch.logAttrs()...)
	docs := batch.documents()

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := embedBatchOnce(ctx, embedder, batch, docs)
		if err == nil {
			if len(vectors) != len(docs) {
				return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(docs), len(vectors))
			}
			if attempt > 1 {
				log.Info("catalog batch embedded after retry", "attempt", attempt)
			}
			return vectors, nil
		}

		lastErr = err
		log.Warn("catalog batch embedding failed", "attempt", attempt, "max_attempts", maxAttempts, "err", err)
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", batch, maxAttempts, lastErr)
}
