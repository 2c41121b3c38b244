package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"github.com/williampepple1/listing-scraper/internal/logger"
	"github.com/williampepple1/listing-scraper/pkg/models"
)

type fakeProfiler struct {
	pages    map[string]*models.Page
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeProfiler) Profile(ctx context.Context, subject string) (*models.Page, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	page, ok := f.pages[subject]
	if !ok {
		return nil, fmt.Errorf("no profile for %s", subject)
	}
	return page, nil
}

type fakeLinks struct {
	mu    sync.Mutex
	sites []string
	links map[string][]string
	err   error
}

func (f *fakeLinks) Links(ctx context.Context, website string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sites = append(f.sites, website)
	return f.links[website], f.err
}

func testPool(t *testing.T, p Profiler, subjects []string, workers int) *Pool {
	t.Helper()
	cfg := config.Default().Scraper
	cfg.Workers = workers
	cfg.RateLimit = 0
	ex := extraction.NewExtractor(extraction.DefaultRules(), logger.Discard())
	return NewPool(&cfg, ex, p, subjects, logger.Discard())
}

func profilePage(subject, sector, website string) *models.Page {
	return &models.Page{
		Subject: subject,
		Fragments: []models.Fragment{
			{Label: "Sektor", Text: sector},
			{Label: "Situs Web", Text: website},
		},
		Links: []string{"https://facebook.com/" + subject},
	}
}

func TestPool_RunKeepsInputOrder(t *testing.T) {
	subjects := []string{"AALI", "BBCA", "BBRI", "TLKM", "UNVR", "ASII"}
	f := &fakeProfiler{pages: map[string]*models.Page{}}
	for _, s := range subjects {
		f.pages[s] = profilePage(s, "Keuangan", "-")
	}

	results := testPool(t, f, subjects, 3).Run(context.Background(), subjects)
	require.Len(t, results, len(subjects))
	for i, r := range results {
		assert.Equal(t, subjects[i], r.Subject)
		assert.Empty(t, r.Err)
		require.NotNil(t, r.Record)
		assert.Equal(t, "Keuangan", r.Record.Sector)
		assert.Equal(t, "", r.Record.Website)
		assert.Len(t, r.Record.SocialLinks, 1)
	}
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(3))
	assert.Greater(t, f.maxSeen.Load(), int32(1))
}

func TestPool_FailureDoesNotAbortBatch(t *testing.T) {
	f := &fakeProfiler{pages: map[string]*models.Page{
		"BBCA": profilePage("BBCA", "Keuangan", "-"),
	}}
	results := testPool(t, f, nil, 2).Run(context.Background(), []string{"NOPE", "BBCA"})
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Err, "no profile for NOPE")
	assert.Nil(t, results[0].Record)
	assert.Empty(t, results[1].Err)
	assert.Equal(t, "Keuangan", results[1].Record.Sector)
}

func TestPool_FollowsWebsite(t *testing.T) {
	f := &fakeProfiler{pages: map[string]*models.Page{
		"BBCA": profilePage("BBCA", "Keuangan", "www.bca.co.id"),
		"AALI": profilePage("AALI", "Pertanian", "-"),
	}}
	links := &fakeLinks{links: map[string][]string{
		"www.bca.co.id": {"https://instagram.com/goodlifebca", "https://www.bca.co.id/kontak", "https://FACEBOOK.com/BBCA"},
	}}

	pool := testPool(t, f, []string{"BBCA", "AALI"}, 2)
	pool.Links = links
	results := pool.Run(context.Background(), []string{"BBCA", "AALI"})

	assert.Equal(t, []string{"www.bca.co.id"}, links.sites)
	assert.Equal(t, []string{"https://facebook.com/bbca", "https://instagram.com/goodlifebca"}, results[0].Record.SocialLinks)
	assert.Equal(t, []string{"https://facebook.com/aali"}, results[1].Record.SocialLinks)
}

func TestPool_WebsiteErrorKeepsRecord(t *testing.T) {
	f := &fakeProfiler{pages: map[string]*models.Page{
		"BBCA": profilePage("BBCA", "Keuangan", "www.bca.co.id"),
	}}
	pool := testPool(t, f, []string{"BBCA"}, 1)
	pool.Links = &fakeLinks{err: errors.New("connection refused")}

	results := pool.Run(context.Background(), []string{"BBCA"})
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Err)
	assert.Equal(t, "www.bca.co.id", results[0].Record.Website)
}

func TestPool_CountsDroppedFragments(t *testing.T) {
	long := "this unlabeled text is far too long to be a category and has a · separator in it"
	f := &fakeProfiler{pages: map[string]*models.Page{
		"BBCA": {Subject: "BBCA", Fragments: []models.Fragment{{Text: long}, {Label: "Sektor", Text: "Keuangan"}}},
	}}
	results := testPool(t, f, nil, 1).Run(context.Background(), []string{"BBCA"})
	assert.Equal(t, 1, results[0].Dropped)
}

func TestPool_CanceledContext(t *testing.T) {
	f := &fakeProfiler{pages: map[string]*models.Page{}}
	cfg := config.Default().Scraper
	cfg.Workers = 1
	cfg.RateLimit = time.Hour
	ex := extraction.NewExtractor(extraction.DefaultRules(), logger.Discard())
	subjects := []string{"A", "B", "C"}
	pool := NewPool(&cfg, ex, f, subjects, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := pool.Run(ctx, subjects)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotEmpty(t, r.Err)
	}
}

func TestPool_RepeatedSubjectProfiledOnce(t *testing.T) {
	f := &fakeProfiler{pages: map[string]*models.Page{
		"BBCA": profilePage("BBCA", "Keuangan", "-"),
		"TLKM": profilePage("TLKM", "Infrastruktur", "-"),
	}}
	subjects := []string{"BBCA", "TLKM", "BBCA", "BBCA"}

	results := testPool(t, f, subjects, 2).Run(context.Background(), subjects)
	require.Len(t, results, 2)
	assert.Equal(t, "BBCA", results[0].Subject)
	assert.Equal(t, "TLKM", results[1].Subject)
	assert.Equal(t, int32(2), f.calls.Load())
}
