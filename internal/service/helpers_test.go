package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pageza/knoweat/backend/config"
)

// modelServer fakes the chat-completions endpoint. Every request body is kept for inspection.
type modelServer struct {
	*httptest.Server
	calls    int32
	mu       sync.Mutex
	requests []ChatRequest
	raw      []map[string]interface{}
}

func newModelServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *modelServer {
	t.Helper()
	ms := &modelServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ms.calls, 1)
		body, _ := io.ReadAll(r.Body)
		var req ChatRequest
		_ = json.Unmarshal(body, &req)
		var raw map[string]interface{}
		_ = json.Unmarshal(body, &raw)
		ms.mu.Lock()
		ms.requests = append(ms.requests, req)
		ms.raw = append(ms.raw, raw)
		ms.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(ms.Close)
	return ms
}

// replyWith returns a handler answering every request with content as the first choice.
func replyWith(content string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		})
	}
}

func (ms *modelServer) callCount() int {
	return int(atomic.LoadInt32(&ms.calls))
}

func newTestChat(t *testing.T, url string, timeout time.Duration) *ChatClient {
	t.Helper()
	chat, err := NewChatClient(config.ModelConfig{
		APIKey:      "test-key",
		APIURL:      url,
		Name:        config.DefaultModelName,
		Timeout:     timeout,
		MaxTokens:   4096,
		Temperature: 0.1,
	}, nil)
	require.NoError(t, err)
	return chat
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// memoryCache is a ReplyCache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = content
	c.sets++
	return nil
}

const trattoriaReply = `{
  "restaurant": "Trattoria Roma",
  "categoryIcon": "pizza-slice",
  "menuLanguage": "Italian",
  "dishes": [
    {
      "name": "Margherita Pizza",
      "description": "Pizza Margherita",
      "price": "9.50",
      "category": "Pizzas (Pizze)",
      "ingredients": ["Wheat flour", "Tomato", "Mozzarella"],
      "allergenIds": ["gluten", "dairy", "lactose", "unicorn"]
    },
    {
      "name": "Green Salad",
      "description": "Insalata Verde",
      "price": 6,
      "category": "Salads (Insalate)",
      "ingredients": ["Lettuce", "Olive oil"],
      "allergenIds": []
    }
  ]
}`

func configWithoutKey() config.ModelConfig {
	return config.ModelConfig{APIURL: "http://127.0.0.1:1", Timeout: time.Second}
}
