package server

import (
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const poolSize = 2
	app := newTestApp(t, poolSize)

	var active, peak int32
	app.Get("/work", func(c fiber.Ctx) error {
		current := atomic.AddInt32(&active, 1)
		for {
			prev := atomic.LoadInt32(&peak)
			if current <= prev || atomic.CompareAndSwapInt32(&peak, prev, current) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return c.SendStatus(fiber.StatusNoContent)
	})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := app.Test(httptest.NewRequest("GET", "/work", nil), fiber.TestConfig{Timeout: 5 * time.Second})
			if err != nil {
				t.Errorf("app.Test failed: %v", err)
				return
			}
			if resp.StatusCode != fiber.StatusNoContent {
				t.Errorf("expected 204, got %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > poolSize {
		t.Fatalf("expected at most %d concurrent handlers, saw %d", poolSize, got)
	}
	if got := atomic.LoadInt32(&peak); got == 0 {
		t.Fatalf("handlers never ran")
	}
}

func TestNewWorkerPoolClampsSize(t *testing.T) {
	if got := NewWorkerPool(0, nil).Size(); got != 1 {
		t.Fatalf("expected size clamp to 1, got %d", got)
	}
	if got := NewWorkerPool(6, nil).Size(); got != 6 {
		t.Fatalf("expected size 6, got %d", got)
	}
}
