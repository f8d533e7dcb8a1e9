package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder(t *testing.T) {
	t.Parallel()

	e := HashEmbedder{Dims: 64}
	a := e.Embed("Product launch in Moscow")
	b := e.Embed("product LAUNCH, in moscow!")
	assert.Len(t, a, 64)
	assert.InDelta(t, 0, squaredDistance(a, b), 1e-9, "tokenisation ignores case and punctuation")

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1, norm, 1e-9)

	assert.Len(t, HashEmbedder{}.Embed(""), 256)
}

func TestMemoryCorpus_AddCaseIsIdempotent(t *testing.T) {
	corpus := NewMemoryCorpus(nil)
	e, err := NewEngine(corpus, DefaultConfig(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, e.AddCase(ctx, "x", "first text", map[string]string{MetadataTenantKey: "t1"}))
	require.NoError(t, e.AddCase(ctx, "x", "second text", map[string]string{MetadataTenantKey: "t1"}))

	assert.Equal(t, 1, corpus.Len())
	doc, ok := corpus.Get("x")
	require.True(t, ok)
	assert.Equal(t, "second text", doc.Text)
}

func TestMemoryCorpus_TenantScoping(t *testing.T) {
	corpus := NewMemoryCorpus(nil)
	e, err := NewEngine(corpus, DefaultConfig(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, e.AddCase(ctx, "a", "coffee shop opens downtown", map[string]string{MetadataTenantKey: "t1"}))
	require.NoError(t, e.AddCase(ctx, "b", "coffee shop opens downtown", map[string]string{MetadataTenantKey: "t2"}))

	got, err := e.QueryTenant(ctx, "t1", "coffee shop opens downtown")
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee shop opens downtown"}, got)

	got, err = e.QueryGlobal(ctx, "coffee shop opens downtown")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = e.QueryTenant(ctx, "t3", "coffee shop opens downtown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryCorpus_RanksBySimilarity(t *testing.T) {
	corpus := NewMemoryCorpus(nil)
	ctx := context.Background()
	tenant := "t1"

	require.NoError(t, corpus.Upsert(ctx, Document{ID: "1", Text: "bank raises interest rates", TenantID: tenant}))
	require.NoError(t, corpus.Upsert(ctx, Document{ID: "2", Text: "new smartphone product launch", TenantID: tenant}))
	require.NoError(t, corpus.Upsert(ctx, Document{ID: "3", Text: "smartphone launch event", TenantID: tenant}))

	got, err := corpus.Search(ctx, "smartphone launch", &tenant, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "smartphone launch event", got[0].Text)
	assert.Equal(t, "new smartphone product launch", got[1].Text)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
}

func TestMemoryCorpus_TiesKeepInsertionOrder(t *testing.T) {
	corpus := NewMemoryCorpus(nil)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, corpus.Upsert(ctx, Document{ID: id, Text: "identical text"}))
	}

	got, err := corpus.Search(ctx, "identical text", nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Overwriting an early document does not move it to the end
	require.NoError(t, corpus.Upsert(ctx, Document{ID: "first", Text: "identical text"}))
	doc, _ := corpus.Get("first")
	assert.Equal(t, "identical text", doc.Text)
	assert.Equal(t, 0, corpus.docs["first"].seq)
}
