package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/linkscout/internal/logging"
)

// ChromedpClient renders pages in headless Chrome. Only GET is supported.
// Each Do opens a fresh tab on a shared browser allocator.
type ChromedpClient struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	idleAfter   time.Duration
	timeout     time.Duration
	logger      logging.Logger
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = 2 * time.Second
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.UserAgent(cfg.userAgent()))
	if cfg.Headless != nil && !*cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	componentLogger.Debug("created chromedp webclient", logging.Field{Key: "idle_after", Value: idleAfter.String()})

	return &ChromedpClient{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		idleAfter:   idleAfter,
		timeout:     cfg.timeout(),
		logger:      componentLogger,
	}, nil
}

// pageWatch tracks in-flight requests and the main document's status.
type pageWatch struct {
	idle       chan struct{}
	activeReqs int32
	status     int64

	timerMu sync.Mutex
	timer   *time.Timer
	once    sync.Once
}

func watchPage(ctx context.Context, idleAfter time.Duration) *pageWatch {
	w := &pageWatch{idle: make(chan struct{})}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&w.activeReqs, 1)
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument && e.Response != nil {
				atomic.CompareAndSwapInt64(&w.status, 0, e.Response.Status)
			}
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&w.activeReqs, -1) <= 0 {
				w.arm(idleAfter)
			}
		}
	})
	return w
}

// arm (re)starts the quiet-period timer. idle closes once the timer fires
// with nothing in flight.
func (w *pageWatch) arm(idleAfter time.Duration) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(idleAfter, func() {
		if atomic.LoadInt32(&w.activeReqs) <= 0 {
			w.once.Do(func() { close(w.idle) })
		}
	})
}

func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("chromedp: method %s not supported", m)
	}

	tabCtx, cancelTab := chromedp.NewContext(cdc.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, cdc.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	watch := watchPage(tabCtx, cdc.idleAfter)

	cdc.logger.Debug("navigating", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(req.URL)); err != nil {
		return nil, fmt.Errorf("chromedp navigate %s: %w", req.URL, err)
	}
	// Covers pages that finished loading before the first event arrived.
	watch.arm(cdc.idleAfter)

	select {
	case <-watch.idle:
	case <-tabCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("chromedp wait for idle %s: %w", req.URL, tabCtx.Err())
	}

	var html, location string
	if err := chromedp.Run(tabCtx,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	); err != nil {
		return nil, fmt.Errorf("chromedp read %s: %w", req.URL, err)
	}

	status := int(atomic.LoadInt64(&watch.status))
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		StatusCode: status,
		FinalURL:   location,
		FetchedAt:  time.Now(),
	}, nil
}

func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return cdc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (cdc *ChromedpClient) Close() error {
	cdc.cancelAlloc()
	return nil
}
