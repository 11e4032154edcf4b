package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketETL/internal/model"
)

func testNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.APIURL = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, map[string]string{"chat_id": "42", "text": "hello", "parse_mode": "HTML"}, got)
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 2))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-10)
	err := n.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New("", "", "", nil))
	assert.IsType(t, &TelegramNotifier{}, New("t", "1", "", nil))
	assert.NoError(t, Nop{}.Notify(context.Background(), "x"))
}

func TestFormatStaleAlert(t *testing.T) {
	fresh := map[string]model.FreshnessRecord{
		"SPY":  {LastAvailableDate: "2024-01-01", DaysSinceUpdate: 9, IsStale: true},
		"AAPL": {LastAvailableDate: "2024-01-05", DaysSinceUpdate: 5, IsStale: true},
		"MSFT": {LastAvailableDate: "2024-01-09", DaysSinceUpdate: 1},
	}
	msg := FormatStaleAlert(fresh, 2)
	assert.Contains(t, msg, "(&gt; 2 days)")
	assert.Less(t, strings.Index(msg, "AAPL"), strings.Index(msg, "SPY"))
	assert.NotContains(t, msg, "MSFT")
	assert.Contains(t, msg, "AAPL: last 2024-01-05 (5 days ago)")

	assert.Equal(t, "", FormatStaleAlert(map[string]model.FreshnessRecord{"MSFT": fresh["MSFT"]}, 2))
}

func TestFormatRunFailure(t *testing.T) {
	msg := FormatRunFailure(errors.New("run 20240101T000000Z-abcdef12: dial <db>: refused"))
	assert.Contains(t, msg, "run failed")
	assert.Contains(t, msg, "dial &lt;db&gt;: refused")
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		replies []string
		polls   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if first {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}
				]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var commands []string
	n := testNotifier(srv.URL)
	n.StartPolling(ctx, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "ok: " + cmd
	})

	assert.Equal(t, []string{"/status"}, commands, "other chats are ignored")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok: /status"}, replies)
}
