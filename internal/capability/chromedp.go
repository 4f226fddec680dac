package capability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeCapturer captures screenshots through a headless Chrome instance.
type ChromeCapturer struct {
	logger  *zap.Logger
	timeout time.Duration
	ctxPool sync.Pool

	mu      sync.Mutex
	cancels []context.CancelFunc
}

func NewChromeCapturer(timeout time.Duration, logger *zap.Logger) *ChromeCapturer {
	c := &ChromeCapturer{logger: logger, timeout: timeout}
	c.ctxPool.New = func() interface{} {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", ""),
			chromedp.Flag("disable-dev-shm-usage", ""),
			chromedp.WindowSize(1920, 1080),
		)
		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
		c.mu.Lock()
		c.cancels = append(c.cancels, cancel)
		c.mu.Unlock()
		return allocCtx
	}
	return c
}

// Close releases every browser allocator the pool has created.
func (c *ChromeCapturer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

// Capture navigates to url and writes a full-viewport PNG to outPath. The
// file is written to a temp name and renamed into place so a concurrent
// capture of the same path can never be observed half-written.
func (c *ChromeCapturer) Capture(ctx context.Context, url, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}

	allocCtx := c.ctxPool.Get().(context.Context)
	defer c.ctxPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, c.timeout)
	defer timeoutCancel()
	// The chromedp chain is rooted in the pooled allocator, not the caller's
	// context; caller cancellation has to be forwarded into it.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return fmt.Errorf("capture %s: %w", url, err)
	}

	tmp := outPath + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return fmt.Errorf("place screenshot: %w", err)
	}

	c.logger.Debug("captured screenshot", zap.String("url", url), zap.String("path", outPath))
	return nil
}
