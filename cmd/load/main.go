// Load generator: floods the orders endpoint with resting bids and
// asks around a midpoint, cancelling a fraction of them, and reports
// throughput.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type orderReq struct {
	OrderID uint64 `json:"order_id"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Qty     int64  `json:"qty"`
}

func main() {
	var (
		base       = flag.String("url", "http://127.0.0.1:8080", "engine base URL")
		conns      = flag.Int("c", 20, "concurrency (goroutines)")
		total      = flag.Int("n", 10000, "total orders")
		mid        = flag.Float64("mid", 100.0, "midpoint price")
		cancelFrac = flag.Int("cancel", 3, "cancel every Nth order (0 = never)")
	)
	flag.Parse()

	runID := uuid.NewString()
	fmt.Printf("load run %s: %d orders, %d workers\n", runID, *total, *conns)

	client := &http.Client{Timeout: 10 * time.Second}

	var nextID atomic.Uint64
	var sent, failed atomic.Int64
	perWorker := (*total + *conns - 1) / *conns

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *conns; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(worker) + time.Now().UnixNano()))

			for i := 0; i < perWorker; i++ {
				id := nextID.Add(1)
				if int(id) > *total {
					return
				}

				side := "bid"
				offset := -float64(rng.Intn(50)) * 0.01
				if id%2 == 0 {
					side = "ask"
					offset = float64(rng.Intn(50)+1) * 0.01
				}
				req := orderReq{
					OrderID: id,
					Side:    side,
					Price:   fmt.Sprintf("%.2f", *mid+offset),
					Qty:     int64(1 + rng.Intn(100)),
				}

				if err := post(client, *base+"/api/v1/orders", req); err != nil {
					failed.Add(1)
					continue
				}
				sent.Add(1)

				if *cancelFrac > 0 && id%uint64(*cancelFrac) == 0 {
					httpReq, _ := http.NewRequest(http.MethodDelete,
						fmt.Sprintf("%s/api/v1/orders/%d", *base, id), nil)
					if resp, err := client.Do(httpReq); err == nil {
						resp.Body.Close()
					}
				}
			}
		}(w)
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("done: sent=%d failed=%d duration=%s req/s=%.1f\n",
		sent.Load(), failed.Load(), elapsed.Round(time.Millisecond),
		float64(sent.Load())/elapsed.Seconds())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func post(client *http.Client, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
