package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	pushPath      = "/loki/api/v1/push"
	maxBatch      = 20
	flushInterval = time.Second
)

// Writer buffers log lines and ships them to Loki's push API. Lines are
// dropped when Loki is unreachable; logging must never block a request.
type Writer struct {
	url    string
	labels map[string]string
	client *http.Client

	mu   sync.Mutex
	buf  [][2]string
	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// NewWriter returns nil when baseUrl is empty. labels become the stream
// labels; "job" is expected.
func NewWriter(baseUrl string, labels map[string]string) *Writer {
	if baseUrl == "" {
		return nil
	}
	w := &Writer{
		url:    strings.TrimSuffix(baseUrl, "/") + pushPath,
		labels: labels,
		client: &http.Client{Timeout: 5 * time.Second},
		buf:    make([][2]string, 0, maxBatch),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.flushLoop()
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	needFlush := false
	w.mu.Lock()
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.buf = append(w.buf, [2]string{now, string(line)})
	}
	needFlush = len(w.buf) >= maxBatch
	w.mu.Unlock()
	if needFlush {
		go w.Flush(context.Background())
	}
	return len(p), nil
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.Flush(context.Background())
		}
	}
}

// Flush sends everything buffered so far.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buf) == 0 {
		w.mu.Unlock()
		return nil
	}
	values := w.buf
	w.buf = make([][2]string, 0, maxBatch)
	w.mu.Unlock()

	raw, err := json.Marshal(pushRequest{Streams: []stream{{Stream: w.labels, Values: values}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki push: status %d", resp.StatusCode)
	}
	return nil
}

// Close stops the background flusher and sends what is left. Safe to call
// more than once.
func (w *Writer) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = w.Flush(ctx)
	})
	return err
}
