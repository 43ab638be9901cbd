package tmbridge

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/ai/mock"
	"github.com/poiesic/tmbridge/bundle"
	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/search"
	"github.com/poiesic/tmbridge/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siddhaEntries() []*core.Entry {
	return []*core.Entry{
		core.NewEntry("SP42", "pRuShTha-grahaH", "stiffness of back", "", "", ""),
		core.NewEntry("SA01", "vātam", "wind humour", "", "", ""),
		core.NewEntry("SA02", "pittam", "bile humour", "", "", ""),
		core.NewEntry("SB10", "kapam", "phlegm humour", "", "", ""),
	}
}

func importAll(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	catalogs := map[core.Terminology][]*core.Entry{
		core.Siddha: siddhaEntries(),
		core.ICD11Standard: {
			core.NewEntry("ME84.2", "Stiffness of back", "Back stiffness", "Stiffness or rigidity of the back", "", ""),
			core.NewEntry("8A80", "Migraine", "", "", "", ""),
		},
		core.ICD11TM2: {
			core.NewEntry("SK20", "Vata pattern", "", "", "", ""),
		},
	}
	for term, entries := range catalogs {
		_, err := e.ImportCatalog(ctx, term, entries)
		require.NoError(t, err)
	}
}

// renamedProvider reports a different embedding model than the mock.
type renamedProvider struct {
	ai.AIProvider
	model string
}

func (p *renamedProvider) EmbeddingModel() string {
	return p.model
}

func TestOpen(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "test_db")
		e, err := Open(dir)
		require.NoError(t, err)
		defer e.Close()

		assert.NotNil(t, e.backend)
		assert.NotNil(t, e.catalogs)
		assert.NotNil(t, e.selections)
		assert.NotNil(t, e.Registry())
		assert.NotNil(t, e.Retriever())
		assert.Nil(t, e.provider)
		assert.Empty(t, e.Registry().Terminologies())
		assert.Equal(t, search.DefaultPolicy(), e.Policy())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0644))

		e, err := Open(file)
		assert.Error(t, err)
		assert.Nil(t, e)
	})

	t.Run("invalid policy", func(t *testing.T) {
		policy := search.DefaultPolicy()
		policy.TopK = 0

		e, err := Open("", WithInMemory(), WithPolicy(policy))
		assert.ErrorIs(t, err, search.ErrInvalidPolicy)
		assert.Nil(t, e)
	})

	t.Run("invalid ai config", func(t *testing.T) {
		cfg := ai.DefaultConfig()
		cfg.EmbeddingModel = ""

		e, err := Open("", WithInMemory(), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, e)
	})
}

func TestEngine_Close(t *testing.T) {
	e, err := Open(filepath.Join(t.TempDir(), "test_db"))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.True(t, e.backend.IsClosed())
}

func TestEngine_ImportAndRetrieve(t *testing.T) {
	ctx := context.Background()
	e, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer e.Close()

	importAll(t, e)
	assert.Equal(t, []core.Terminology{core.Siddha, core.ICD11Standard, core.ICD11TM2}, e.Registry().Terminologies())

	result, err := e.Retrieve(ctx, core.Siddha, "stiffness of back")
	require.NoError(t, err)
	assert.Equal(t, core.SourceLexical, result.Source)
	require.NotEmpty(t, result.Candidates)
	assert.Equal(t, "SP42", result.Top().Code)

	t.Run("unknown catalog", func(t *testing.T) {
		_, err := e.Retrieve(ctx, core.Unani, "anything")
		assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
	})

	t.Run("invalid catalog is not stored", func(t *testing.T) {
		_, err := e.ImportCatalog(ctx, core.Unani, []*core.Entry{
			core.NewEntry("U1", "nazla", "", "", "", ""),
			core.NewEntry("U1", "zukam", "", "", "", ""),
		})
		assert.ErrorIs(t, err, core.ErrDuplicateCode)

		_, ok := e.Registry().Get(core.Unani)
		assert.False(t, ok)
	})

	t.Run("lookup", func(t *testing.T) {
		entry, err := e.Lookup(core.Siddha, "SA02")
		require.NoError(t, err)
		assert.Equal(t, "pittam", entry.Term)
	})
}

func TestEngine_ReopenLoadsCatalogs(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "test_db")

	e, err := Open(dir)
	require.NoError(t, err)
	importAll(t, e)
	require.NoError(t, e.Close())

	e, err = Open(dir)
	require.NoError(t, err)
	defer e.Close()

	b, ok := e.Registry().Get(core.Siddha)
	require.True(t, ok)
	assert.Equal(t, 4, b.Len())
	assert.False(t, b.HasVectors())

	result, err := e.Retrieve(ctx, core.Siddha, "bile humour")
	require.NoError(t, err)
	assert.Equal(t, "SA02", result.Top().Code)
}

func TestEngine_Rebuild(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "test_db")

	var progress bytes.Buffer
	e, err := Open(dir,
		WithAIProvider(mock.NewMockProvider()),
		WithBuildConfig(&bundle.BuildConfig{BatchSize: 2, Workers: 2, MaxRetries: 1, ReportInterval: 1}),
		WithProgress(&progress),
	)
	require.NoError(t, err)

	_, err = e.ImportCatalog(ctx, core.Siddha, siddhaEntries())
	require.NoError(t, err)

	info, err := e.Rebuild(ctx, core.Siddha)
	require.NoError(t, err)
	assert.Equal(t, mock.ModelName, info.EmbeddingModel)
	assert.Equal(t, 4, info.Entries)
	assert.Equal(t, mock.DefaultDimension, info.Dimension)
	assert.Contains(t, progress.String(), "4/4")

	b, ok := e.Registry().Get(core.Siddha)
	require.True(t, ok)
	assert.True(t, b.HasVectors())
	require.NoError(t, e.Close())

	t.Run("vectors survive reopen", func(t *testing.T) {
		e, err := Open(dir, WithAIProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer e.Close()

		b, ok := e.Registry().Get(core.Siddha)
		require.True(t, ok)
		assert.True(t, b.HasVectors())
		assert.Equal(t, mock.ModelName, b.Info().EmbeddingModel)
	})

	t.Run("other model serves lexical-only", func(t *testing.T) {
		provider := &renamedProvider{AIProvider: mock.NewMockProvider(), model: "other-model"}
		e, err := Open(dir, WithAIProvider(provider))
		require.NoError(t, err)
		defer e.Close()

		b, ok := e.Registry().Get(core.Siddha)
		require.True(t, ok)
		assert.False(t, b.HasVectors())
	})

	t.Run("reimport drops vectors", func(t *testing.T) {
		e, err := Open(dir, WithAIProvider(mock.NewMockProvider()))
		require.NoError(t, err)

		_, err = e.ImportCatalog(ctx, core.Siddha, siddhaEntries()[:2])
		require.NoError(t, err)
		require.NoError(t, e.Close())

		e, err = Open(dir, WithAIProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer e.Close()

		b, ok := e.Registry().Get(core.Siddha)
		require.True(t, ok)
		assert.Equal(t, 2, b.Len())
		assert.False(t, b.HasVectors())
	})
}

func TestEngine_RebuildUnknownCatalog(t *testing.T) {
	e, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Rebuild(context.Background(), core.Ayurveda)
	assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
}

func TestEngine_RebuildWithoutProvider(t *testing.T) {
	ctx := context.Background()
	e, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.ImportCatalog(ctx, core.Siddha, siddhaEntries())
	require.NoError(t, err)

	info, err := e.Rebuild(ctx, core.Siddha)
	require.NoError(t, err)
	assert.Empty(t, info.EmbeddingModel)
	assert.Zero(t, info.Dimension)
}

func TestEngine_CrossMap(t *testing.T) {
	e, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer e.Close()
	importAll(t, e)

	result, err := e.CrossMap(context.Background(), core.Siddha, "SP42", "pRuShTha-grahaH")
	require.NoError(t, err)
	assert.Equal(t, "pRuShTha-grahaH stiffness of back", result.Query)
	require.NotEmpty(t, result.Standard.Candidates)
	assert.Equal(t, "ME84.2", result.Standard.Top().Code)
	assert.NotNil(t, result.TM2.Candidates)
}

func TestEngine_Map(t *testing.T) {
	e, err := Open("", WithInMemory(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer e.Close()
	importAll(t, e)

	result, err := e.Map(context.Background(), core.Siddha, "stiffness of back")
	require.NoError(t, err)
	require.NotNil(t, result.Selected)
	assert.Equal(t, "SP42", result.Selected.Code)
	assert.Equal(t, core.Siddha, result.System)
	assert.NotNil(t, result.ICDStandard)
	assert.NotNil(t, result.ICDTM2)
}

func TestEngine_RecordSelection(t *testing.T) {
	ctx := context.Background()
	e, err := Open("", WithInMemory())
	require.NoError(t, err)
	defer e.Close()
	importAll(t, e)

	t.Run("unknown code", func(t *testing.T) {
		err := e.RecordSelection(ctx, &core.Selection{System: core.Siddha, Target: core.Siddha, Code: "ZZ99"})
		assert.ErrorIs(t, err, search.ErrCodeNotFound)
	})

	t.Run("unloaded catalog", func(t *testing.T) {
		err := e.RecordSelection(ctx, &core.Selection{System: core.Siddha, Target: core.Unani, Code: "U1"})
		assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
	})

	t.Run("boosts later retrievals", func(t *testing.T) {
		before, err := e.Retrieve(ctx, core.Siddha, "wind humour")
		require.NoError(t, err)
		require.Len(t, before.Candidates, 3)
		assert.Equal(t, "SA02", before.Candidates[1].Code)

		for range 9 {
			require.NoError(t, e.RecordSelection(ctx, &core.Selection{
				System: core.Siddha,
				Target: core.Siddha,
				Code:   "SB10",
				Query:  "wind humour",
			}))
		}

		after, err := e.Retrieve(ctx, core.Siddha, "wind humour")
		require.NoError(t, err)
		assert.Equal(t, "SA01", after.Candidates[0].Code)
		assert.Equal(t, "SB10", after.Candidates[1].Code)

		recent, err := e.RecentSelections(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "SB10", recent[0].Code)
	})

	t.Run("boost disabled", func(t *testing.T) {
		plain, err := Open("", WithInMemory(), WithSelectionBoost(false))
		require.NoError(t, err)
		defer plain.Close()
		importAll(t, plain)

		require.NoError(t, plain.RecordSelection(ctx, &core.Selection{Target: core.Siddha, Code: "SB10"}))
		result, err := plain.Retrieve(ctx, core.Siddha, "wind humour")
		require.NoError(t, err)
		assert.Equal(t, "SA02", result.Candidates[1].Code)
	})
}

func TestEngine_ExternalSearch(t *testing.T) {
	searcher := websearch.SearcherFunc(func(ctx context.Context, text string) ([]websearch.Result, error) {
		return []websearch.Result{{Title: "Back stiffness", Snippet: "web", Link: "https://example.org/a"}}, nil
	})

	e, err := Open("", WithInMemory(), WithExternalSearch(searcher))
	require.NoError(t, err)
	defer e.Close()
	importAll(t, e)

	result, err := e.Retrieve(context.Background(), core.Siddha, "zzzz qqqq")
	require.NoError(t, err)
	assert.Equal(t, core.SourceExternal, result.Source)
	require.Len(t, result.Candidates, 1)
	assert.Empty(t, result.Candidates[0].Code)
	assert.Equal(t, "https://example.org/a", result.Candidates[0].Link)
}
