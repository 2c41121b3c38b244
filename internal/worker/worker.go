package worker

import (
	"context"
	"sync"
	"time"

	"github.com/kataras/golog"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/extraction"
	"github.com/williampepple1/listing-scraper/pkg/models"
	"golang.org/x/time/rate"
)

// Profiler fetches the page describing one subject
type Profiler interface {
	Profile(ctx context.Context, subject string) (*models.Page, error)
}

// LinkSource lists the anchors found on a subject's own website
type LinkSource interface {
	Links(ctx context.Context, website string) ([]string, error)
}

// Pool profiles subjects with a fixed number of worker goroutines.
// Every subject gets its own accumulator, so workers share nothing but the
// extractor's compiled rules and the rate limiter.
type Pool struct {
	Config    *config.ScraperConfig
	Extractor *extraction.Extractor
	Profiler  Profiler
	// Links, when set, is asked for the website anchors of every subject
	// whose record has a website.
	Links     LinkSource
	Jobs      chan string
	Results   chan models.Result
	WaitGroup *sync.WaitGroup

	limiter *rate.Limiter
	log     *golog.Logger
}

// NewPool creates a new worker pool sized for subjects
func NewPool(cfg *config.ScraperConfig, ex *extraction.Extractor, p Profiler, subjects []string, log *golog.Logger) *Pool {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	return &Pool{
		Config:    cfg,
		Extractor: ex,
		Profiler:  p,
		Jobs:      make(chan string, len(subjects)),
		Results:   make(chan models.Result, len(subjects)),
		WaitGroup: &sync.WaitGroup{},
		limiter:   rate.NewLimiter(limit, 1),
		log:       log,
	}
}

// Start starts the workers. Results is closed once Jobs is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	workers := p.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	for w := 1; w <= workers; w++ {
		p.WaitGroup.Add(1)
		go p.worker(ctx, w)
	}

	go func() {
		p.WaitGroup.Wait()
		close(p.Results)
	}()
}

// AddJobs queues subjects and closes the jobs channel
func (p *Pool) AddJobs(subjects []string) {
	for _, s := range subjects {
		p.Jobs <- s
	}
	close(p.Jobs)
}

// Run profiles each distinct subject once and returns the results in
// first-seen input order
func (p *Pool) Run(ctx context.Context, subjects []string) []models.Result {
	unique := dedupe(subjects)
	p.Start(ctx)
	go p.AddJobs(unique)

	bySubject := make(map[string]models.Result, len(unique))
	for r := range p.Results {
		bySubject[r.Subject] = r
	}
	results := make([]models.Result, 0, len(unique))
	for _, s := range unique {
		results = append(results, bySubject[s])
	}
	return results
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.WaitGroup.Done()

	for subject := range p.Jobs {
		if err := p.limiter.Wait(ctx); err != nil {
			p.Results <- models.Result{Subject: subject, Err: err.Error(), Timestamp: time.Now()}
			continue
		}
		p.log.Debugf("worker %d processing %s", id, subject)
		p.Results <- p.process(ctx, subject)
	}
}

func (p *Pool) process(ctx context.Context, subject string) models.Result {
	start := time.Now()
	result := models.Result{Subject: subject, Timestamp: start}
	fail := func(err error) models.Result {
		p.log.Errorf("%s: %v", subject, err)
		result.Err = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	acc := p.Extractor.NewAccumulator(subject)
	page, err := p.Profiler.Profile(ctx, subject)
	if err != nil {
		return fail(err)
	}
	if err := p.Extractor.Apply(acc, page); err != nil {
		return fail(err)
	}

	if website := acc.Get(models.FieldWebsite); website != "" && p.Links != nil {
		links, err := p.Links.Links(ctx, website)
		if err != nil {
			// the profile is still worth keeping without social links
			p.log.Warnf("%s: website %s: %v", subject, website, err)
		}
		for _, l := range links {
			if _, err := acc.AddLink(l); err != nil {
				return fail(err)
			}
		}
	}

	rec, err := acc.Finalize()
	if err != nil {
		return fail(err)
	}
	result.Record = rec
	result.Dropped = acc.Dropped()
	result.Duration = time.Since(start)
	return result
}
