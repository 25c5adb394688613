package headlines

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/headlines/fetch"
	"github.com/pevans/headlines/links"
	"github.com/pevans/headlines/publisher"
)

const testBaseURL = "https://news.example.com"

// fakeFetcher serves canned pages by URL and records every call.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return []byte(page), nil
	}
	return nil, &fetch.Failure{URL: url, Reason: fetch.ReasonHTTPStatus, StatusCode: 404, Err: errors.New("not found")}
}

// countingThrottle never sleeps.
type countingThrottle struct {
	waits int
}

func (c *countingThrottle) Wait(ctx context.Context) error {
	c.waits++
	return ctx.Err()
}

// Test helper: create a registry with a single test publisher
func createTestRegistry(t *testing.T) *publisher.Registry {
	registry, err := publisher.NewRegistry(map[string]publisher.Config{
		"example": {
			BaseURL:          testBaseURL,
			ContentSelectors: []string{"div.article-body p"},
			CategoryAliases:  map[string]string{"mundo": "internacional"},
		},
	})
	require.NoError(t, err)
	return registry
}

func createTestPipeline(t *testing.T, fetcher Fetcher, enrich bool) (*Pipeline, *countingThrottle) {
	throttle := &countingThrottle{}
	return NewPipeline(PipelineConfig{
		Registry: createTestRegistry(t),
		Rules:    publisher.DefaultRules(),
		Fetcher:  fetcher,
		Throttle: throttle,
		Enrich:   enrich,
	}), throttle
}

const articlePage = `<html><body>
<div class="article-body"><p>A.</p><p>B.</p></div>
</body></html>`

// TestRun_ZeroQualifyingLinks verifies the column set survives an empty
// result
func TestRun_ZeroQualifyingLinks(t *testing.T) {
	fetcher := newFakeFetcher()
	pipeline, _ := createTestPipeline(t, fetcher, true)

	markup := `<html><body>
		<a href="/">Inicio</a>
		<a href="/servicios/clima/pronostico">Pronóstico del clima para hoy</a>
		<a href="">Empty href with a long enough title</a>
	</body></html>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)

	assert.Equal(t, 0, table.Len())
	assert.NotNil(t, table.Records)
	assert.Equal(t, []string{"categoria", "titular", "enlace", "texto_completo"}, table.Columns())
	assert.Empty(t, fetcher.calls)
}

// TestRun_FetchFailure verifies one failed article still yields a record
func TestRun_FetchFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	url := testBaseURL + "/colombia/bogota/nuevo-metro-123456"
	fetcher.errs[url] = &fetch.Failure{URL: url, Reason: fetch.ReasonConnection, Err: errors.New("connection refused")}
	pipeline, _ := createTestPipeline(t, fetcher, true)

	markup := `<a href="/colombia/bogota/nuevo-metro-123456">Bogotá inaugura su nueva línea de metro</a>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	record := table.Records[0]
	assert.Equal(t, "colombia", record.Category)
	assert.Equal(t, "Bogotá inaugura su nueva línea de metro", record.Headline)
	assert.Equal(t, url, record.Link)
	assert.Equal(t, "", record.FullText)
	assert.Equal(t, TextFetchFailed, record.TextStatus)
	assert.Equal(t, "connection", record.FailureReason)
}

// TestRun_PlainErrorFromFetcher verifies errors that are not fetch
// failures are still recovered
func TestRun_PlainErrorFromFetcher(t *testing.T) {
	fetcher := newFakeFetcher()
	url := testBaseURL + "/economia/dolar-hoy-998877"
	fetcher.errs[url] = errors.New("boom")
	pipeline, _ := createTestPipeline(t, fetcher, true)

	table, err := pipeline.Run(context.Background(), []byte(`<a href="`+url+`">El dólar cierra a la baja este martes</a>`), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, TextFetchFailed, table.Records[0].TextStatus)
	assert.Equal(t, "connection", table.Records[0].FailureReason)
}

func TestRun_ExtractsArticleText(t *testing.T) {
	fetcher := newFakeFetcher()
	url := testBaseURL + "/mundo/europa/cumbre-climatica-445566"
	fetcher.pages[url] = articlePage
	pipeline, throttle := createTestPipeline(t, fetcher, true)

	markup := `<a href="mundo/europa/cumbre-climatica-445566">
		Líderes europeos acuerdan   metas climáticas
	</a>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	record := table.Records[0]
	assert.Equal(t, "internacional", record.Category, "alias should be applied")
	assert.Equal(t, "Líderes europeos acuerdan metas climáticas", record.Headline)
	assert.Equal(t, url, record.Link)
	assert.Equal(t, "A.\nB.", record.FullText)
	assert.Equal(t, TextExtracted, record.TextStatus)
	assert.Equal(t, 1, throttle.waits)
}

// TestRun_ExtractionMiss verifies a page without matching selectors
func TestRun_ExtractionMiss(t *testing.T) {
	fetcher := newFakeFetcher()
	url := testBaseURL + "/deportes/futbol/final-liga-112233"
	fetcher.pages[url] = `<html><body><main>No article body here</main></body></html>`
	pipeline, _ := createTestPipeline(t, fetcher, true)

	table, err := pipeline.Run(context.Background(), []byte(`<a href="/deportes/futbol/final-liga-112233">Final de la liga colombiana esta noche</a>`), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "", table.Records[0].FullText)
	assert.Equal(t, TextNoContent, table.Records[0].TextStatus)
	assert.Equal(t, 1, table.Count(TextNoContent))
}

// TestRun_Deduplicates verifies one record per resolved URL
func TestRun_Deduplicates(t *testing.T) {
	fetcher := newFakeFetcher()
	url := testBaseURL + "/politica/congreso/reforma-pensional-778899"
	fetcher.pages[url] = articlePage
	pipeline, _ := createTestPipeline(t, fetcher, true)

	markup := `<html><body>
		<h2><a href="/politica/congreso/reforma-pensional-778899">Congreso aprueba la reforma pensional</a></h2>
		<a href="` + url + `">Congreso aprueba la reforma pensional en último debate</a>
	</body></html>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Congreso aprueba la reforma pensional", table.Records[0].Headline, "first anchor wins")
	assert.Equal(t, []string{url}, fetcher.calls)
}

// TestRun_UnknownPublisher verifies the configuration error and that no
// work is attempted
func TestRun_UnknownPublisher(t *testing.T) {
	fetcher := newFakeFetcher()
	pipeline, throttle := createTestPipeline(t, fetcher, true)

	markup := `<a href="/colombia/bogota/nuevo-metro-123456">Bogotá inaugura su nueva línea de metro</a>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "unknown_publisher")
	require.Error(t, err)
	assert.True(t, errors.Is(err, publisher.ErrUnknownPublisher))

	empty, err := pipeline.Run(context.Background(), []byte(`<p>nothing</p>`), "example")
	require.NoError(t, err)

	assert.Equal(t, empty.Columns(), table.Columns())
	assert.Equal(t, empty.Records, table.Records)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, 0, throttle.waits)
}

// TestRun_DocumentOrder verifies records follow anchor order and every
// fetch is throttled
func TestRun_DocumentOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	pipeline, throttle := createTestPipeline(t, fetcher, true)

	markup := `<html><body>
		<a href="/economia/mercados/bolsa-cierra-100001">La bolsa de Colombia cierra en alza</a>
		<a href="/horoscopo/diario/signos-100002">Horóscopo de hoy para todos los signos</a>
		<a href="/cultura/cine/festival-100003">Festival de cine de Cartagena abre convocatoria</a>
	</body></html>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "economia", table.Records[0].Category)
	assert.Equal(t, "cultura", table.Records[1].Category)
	assert.Equal(t, 2, throttle.waits)
	assert.Equal(t, []string{
		testBaseURL + "/economia/mercados/bolsa-cierra-100001",
		testBaseURL + "/cultura/cine/festival-100003",
	}, fetcher.calls)
}

// TestRun_BasicVariant verifies no articles are fetched without enrichment
func TestRun_BasicVariant(t *testing.T) {
	fetcher := newFakeFetcher()
	pipeline, throttle := createTestPipeline(t, fetcher, false)

	markup := `<a href="/colombia/bogota/nuevo-metro-123456">Bogotá inaugura su nueva línea de metro</a>`

	table, err := pipeline.Run(context.Background(), []byte(markup), "example")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.False(t, table.Enriched)
	assert.Equal(t, []string{"categoria", "titular", "enlace"}, table.Columns())
	assert.Equal(t, TextNotFetched, table.Records[0].TextStatus)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, 0, throttle.waits)
}

// TestRun_ExtraCandidates verifies feed links follow homepage links and
// share de-duplication
func TestRun_ExtraCandidates(t *testing.T) {
	pipeline, _ := createTestPipeline(t, newFakeFetcher(), false)

	markup := `<a href="/colombia/bogota/nuevo-metro-123456">Bogotá inaugura su nueva línea de metro</a>`
	extra := []links.CandidateLink{
		{Title: "Bogotá inaugura su nueva línea de metro", Href: testBaseURL + "/colombia/bogota/nuevo-metro-123456"},
		{Title: "Nueva ola de calor afecta la costa caribe", Href: "/clima/caribe/ola-de-calor-654321"},
		{Title: "Corto", Href: "/clima/caribe/corto-654322"},
	}

	table, err := pipeline.Run(context.Background(), []byte(markup), "example", extra...)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, testBaseURL+"/colombia/bogota/nuevo-metro-123456", table.Records[0].Link)
	assert.Equal(t, testBaseURL+"/clima/caribe/ola-de-calor-654321", table.Records[1].Link)
}

// TestRun_Cancelled verifies a cancelled context stops before fetching
func TestRun_Cancelled(t *testing.T) {
	fetcher := newFakeFetcher()
	pipeline, _ := createTestPipeline(t, fetcher, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	markup := `<a href="/colombia/bogota/nuevo-metro-123456">Bogotá inaugura su nueva línea de metro</a>`
	_, err := pipeline.Run(ctx, []byte(markup), "example")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}

func TestRun_RunIDPerRun(t *testing.T) {
	pipeline, _ := createTestPipeline(t, newFakeFetcher(), false)

	first, err := pipeline.Run(context.Background(), nil, "example")
	require.NoError(t, err)
	second, err := pipeline.Run(context.Background(), nil, "example")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestNewPipeline_NilFetcherDisablesEnrichment(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{Registry: createTestRegistry(t), Enrich: true})
	assert.False(t, pipeline.Enriched())
}

func TestAnchors(t *testing.T) {
	markup := `<html><body>
		<a href="  /a/b  ">  First
		   link </a>
		<a>No href</a>
		<a href="">Empty</a>
		<a href="/c/d"><span>Nested</span> <em>text</em></a>
	</body></html>`

	candidates, err := Anchors([]byte(markup))
	require.NoError(t, err)
	assert.Equal(t, []links.CandidateLink{
		{Title: "First link", Href: "/a/b"},
		{Title: "Nested text", Href: "/c/d"},
	}, candidates)
}
