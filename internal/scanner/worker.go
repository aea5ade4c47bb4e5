package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chainreactors/logs"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/maxvaer/credfuzz/internal/template"
)

// DefaultThreads is the worker count used when WorkerConfig.Threads is unset.
const DefaultThreads = 10

// SuccessFunc decides whether a response means the candidate was accepted.
type SuccessFunc func(resp *Response) bool

// RedirectSuccess treats a 302 Found as a successful login.
func RedirectSuccess(resp *Response) bool {
	return resp.StatusCode == http.StatusFound
}

// WorkerConfig holds options for the worker pool.
type WorkerConfig struct {
	Threads      int
	NewRequester func() (Requester, error) // called once per worker
	IsSuccess    SuccessFunc               // nil = RedirectSuccess
	Confirm      bool                      // GET the redirect target of a success
	Throttler    *Throttler                // nil = no delay
	Limiter      *rate.Limiter             // shared across workers, nil = unlimited
	Pauser       *Pauser                   // nil = no pause support
}

// RunWorkerPool replays tmpl once per candidate across cfg.Threads workers
// and returns a channel of attempts plus the stop signal. The channel is
// closed once every worker has exited, either because the queue drained or
// because a success fired the stop signal. Candidates still queued when the
// signal fires are never sent and never reported.
func RunWorkerPool(
	ctx context.Context,
	tmpl *template.Template,
	candidates []string,
	cfg WorkerConfig,
) (<-chan Attempt, *StopSignal, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}
	if threads > len(candidates) && len(candidates) > 0 {
		threads = len(candidates)
	}
	if cfg.IsSuccess == nil {
		cfg.IsSuccess = RedirectSuccess
	}
	if cfg.NewRequester == nil {
		cfg.NewRequester = func() (Requester, error) {
			return NewClient(ClientConfig{})
		}
	}

	requesters := make([]Requester, threads)
	for i := range requesters {
		r, err := cfg.NewRequester()
		if err != nil {
			return nil, nil, fmt.Errorf("creating requester: %w", err)
		}
		requesters[i] = r
	}

	pool, err := ants.NewPool(threads)
	if err != nil {
		return nil, nil, fmt.Errorf("creating worker pool: %w", err)
	}

	stop := NewStopSignal()
	queue := newQueue(candidates)
	resultsCh := make(chan Attempt, threads*2)

	var wg sync.WaitGroup
	for i, r := range requesters {
		w := &worker{
			id:        i,
			tmpl:      tmpl,
			requester: r,
			queue:     queue,
			results:   resultsCh,
			stop:      stop,
			cfg:       cfg,
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			w.run(ctx)
		}); err != nil {
			wg.Done()
			logs.Log.Warnf("worker %d not started: %v", i, err)
		}
	}

	// Closer: when all workers finish, close the results channel.
	go func() {
		wg.Wait()
		pool.Release()
		close(resultsCh)
	}()

	return resultsCh, stop, nil
}

type worker struct {
	id        int
	tmpl      *template.Template
	requester Requester
	queue     <-chan WorkItem
	results   chan<- Attempt
	stop      *StopSignal
	cfg       WorkerConfig
}

func (w *worker) run(ctx context.Context) {
	for {
		if w.stop.Fired() || ctx.Err() != nil {
			return
		}
		item, ok := <-w.queue
		if !ok {
			return
		}

		if !w.wait(ctx) {
			return
		}
		// Re-check after any wait: a success may have landed meanwhile.
		if w.stop.Fired() {
			return
		}

		attempt := w.attempt(ctx, item)
		if attempt.Error != nil && ctx.Err() != nil {
			// Interrupted by shutdown, not a real transport failure.
			return
		}

		select {
		case w.results <- attempt:
		case <-ctx.Done():
			return
		}
	}
}

// wait applies pause, per-worker delay and the shared rate limit. It
// returns false when ctx is cancelled.
func (w *worker) wait(ctx context.Context) bool {
	if w.cfg.Pauser != nil {
		if err := w.cfg.Pauser.Wait(ctx); err != nil {
			return false
		}
	}
	if w.cfg.Throttler != nil {
		if delay := w.cfg.Throttler.Delay(); delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return false
			}
		}
	}
	if w.cfg.Limiter != nil {
		if err := w.cfg.Limiter.Wait(ctx); err != nil {
			return false
		}
	}
	return true
}

func (w *worker) attempt(ctx context.Context, item WorkItem) Attempt {
	req := w.tmpl.Instantiate(item.Candidate)
	a := Attempt{
		Index:     item.Index,
		Worker:    w.id,
		Candidate: item.Candidate,
		Method:    req.Method,
		URL:       req.URL,
	}

	resp, err := w.requester.Do(ctx, req)
	if err != nil {
		if w.cfg.Throttler != nil {
			w.cfg.Throttler.RecordError()
		}
		a.Error = err
		return a
	}
	if w.cfg.Throttler != nil {
		w.cfg.Throttler.RecordStatus(resp.StatusCode)
	}

	a.StatusCode = resp.StatusCode
	a.Length = resp.Length
	a.Size = resp.Size
	a.RedirectURL = resp.Location
	a.Duration = resp.Duration

	if !w.cfg.IsSuccess(resp) {
		return a
	}
	a.Success = true
	if w.stop.Fire(item.Candidate) {
		logs.Log.Debugf("worker %d: %q fired the stop signal", w.id, item.Candidate)
	}
	if w.cfg.Confirm && resp.Location != "" {
		a.Confirm = w.confirm(ctx, req, resp.Location)
	}
	return a
}

// maxConfirmHops bounds the redirects followed by a confirmation.
const maxConfirmHops = 10

// confirm GETs the redirect target with the same headers, following any
// further redirects, and reports the landing page. The result is
// informational only.
func (w *worker) confirm(ctx context.Context, orig template.Request, location string) *Confirmation {
	current, headers := orig.URL, orig.Headers
	c := &Confirmation{}
	for hop := 0; ; hop++ {
		current, headers = resolveRedirect(current, location, headers)
		c.URL = current

		resp, err := w.requester.Do(ctx, template.Request{
			Method:  http.MethodGet,
			URL:     current,
			Headers: headers,
		})
		if err != nil {
			c.Error = err
			return c
		}
		c.StatusCode = resp.StatusCode
		c.Length = resp.Length
		c.Size = resp.Size

		if !isRedirect(resp.StatusCode) || resp.Location == "" {
			return c
		}
		if hop+1 >= maxConfirmHops {
			c.Error = fmt.Errorf("stopped after %d redirects", maxConfirmHops)
			return c
		}
		location = resp.Location
	}
}

// resolveRedirect resolves location against from. Headers lose their Host
// entry when the redirect leaves the original authority.
func resolveRedirect(from, location string, headers template.Headers) (string, template.Headers) {
	base, err := url.Parse(from)
	if err != nil {
		return location, headers
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location, headers
	}
	next := base.ResolveReference(ref)
	if !strings.EqualFold(next.Host, base.Host) {
		headers = withoutHost(headers)
	}
	return next.String(), headers
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// withoutHost drops the Host header so a cross-host redirect is sent to
// its own authority.
func withoutHost(h template.Headers) template.Headers {
	out := make(template.Headers, 0, len(h))
	for _, hdr := range h {
		if !strings.EqualFold(hdr.Name, "Host") {
			out = append(out, hdr)
		}
	}
	return out
}
