package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/history"
)

var exampleRecord = history.SingleRecord(history.Entry{
	Title:    "Some Video",
	URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	FilePath: "/downloads/Some Video.mp4",
	Type:     "YouTube",
	Format:   "[video+audio]",
})

type failingNotifier struct {
	err   error
	calls int
}

func (f *failingNotifier) Notify(context.Context, Notification) error {
	f.calls++
	return f.err
}

func TestFromRecord(t *testing.T) {
	assert := assert_.New(t)

	n := FromRecord(exampleRecord)
	assert.Equal("Some Video", n.Title)
	assert.Equal("/downloads/Some Video.mp4", n.Path)
	assert.Equal(1, n.Files)
	assert.False(n.Playlist)
	assert.Empty(n.Entries)

	n = FromRecord(history.PlaylistRecord([]history.Entry{{Title: "One", FilePath: "/a"}, {Title: "Two", FilePath: "/b"}}))
	assert.Equal("One", n.Title)
	assert.Equal(2, n.Files)
	assert.True(n.Playlist)
	assert.Len(n.Entries, 2)
}

func TestRender(t *testing.T) {
	assert := assert_.New(t)

	msg, err := Render(nil, FromRecord(exampleRecord))
	assert.NoError(err)
	assert.Equal("Download complete: Some Video\n/downloads/Some Video.mp4", msg)

	msg, err = Render(nil, FromRecord(history.PlaylistRecord([]history.Entry{{Title: "One", FilePath: "/a"}, {Title: "Two"}})))
	assert.NoError(err)
	assert.Equal("Download complete: One (2 files)\n/a", msg)

	tmpl, err := ParseTemplate("{{.Type}}: {{.Title}}")
	assert.NoError(err)
	msg, err = Render(tmpl, FromRecord(exampleRecord))
	assert.NoError(err)
	assert.Equal("YouTube: Some Video", msg)

	_, err = ParseTemplate("{{.Title")
	assert.Error(err)
}

func TestWebhook(t *testing.T) {
	assert := assert_.New(t)

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		assert.NoError(json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	w := &Webhook{URL: server.URL}
	assert.NoError(w.Notify(context.Background(), FromRecord(exampleRecord)))
	assert.Equal("Some Video", received["title"])
	assert.Equal("/downloads/Some Video.mp4", received["path"])
	assert.Equal("Download complete: Some Video\n/downloads/Some Video.mp4", received["message"])
}

func TestWebhook_Error(t *testing.T) {
	assert := assert_.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := (&Webhook{URL: server.URL}).Notify(context.Background(), FromRecord(exampleRecord))
	assert.ErrorIs(err, ErrDeliveryFailed)
}

func TestTelegram(t *testing.T) {
	assert := assert_.New(t)

	var received telegramMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/bot123:abc/sendMessage", r.URL.Path)
		assert.NoError(json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tg := &Telegram{Token: "123:abc", ChatID: "-1001", BaseURL: server.URL}
	assert.NoError(tg.Notify(context.Background(), FromRecord(exampleRecord)))
	assert.Equal("-1001", received.ChatID)
	assert.Equal("Download complete: Some Video\n/downloads/Some Video.mp4", received.Text)
}

func TestTelegram_Error(t *testing.T) {
	assert := assert_.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	}))
	defer server.Close()

	tg := &Telegram{Token: "123:abc", ChatID: "nope", BaseURL: server.URL}
	err := tg.Notify(context.Background(), FromRecord(exampleRecord))
	assert.ErrorIs(err, ErrDeliveryFailed)
	assert.Contains(err.Error(), "chat not found")
	assert.NotContains(err.Error(), "123:abc")
}

func TestMulti(t *testing.T) {
	assert := assert_.New(t)

	a := &failingNotifier{err: errors.New("a failed")}
	b := &failingNotifier{}
	c := &failingNotifier{err: errors.New("c failed")}
	err := Multi{a, b, c}.Notify(context.Background(), Notification{})
	assert.Error(err)
	assert.Contains(err.Error(), "a failed")
	assert.Contains(err.Error(), "c failed")
	assert.Equal(1, a.calls)
	assert.Equal(1, b.calls)
	assert.Equal(1, c.calls)

	assert.NoError(Multi{b}.Notify(context.Background(), Notification{}))
	assert.NoError(Multi{}.Notify(context.Background(), Notification{}))
}

func TestBestEffort(t *testing.T) {
	assert := assert_.New(t)

	f := &failingNotifier{err: ErrDeliveryFailed}
	assert.NoError(BestEffort(f).Notify(context.Background(), Notification{}))
	assert.Equal(1, f.calls)
	assert.NoError(BestEffort(nil).Notify(context.Background(), Notification{}))
}

func TestFromConfig(t *testing.T) {
	assert := assert_.New(t)

	n, err := FromConfig(media_fetcher.NotificationsConfig{WebhookURL: "http://example.com"})
	assert.NoError(err)
	assert.IsType(Nop{}, n)

	n, err = FromConfig(media_fetcher.NotificationsConfig{Enabled: true, WebhookURL: "http://example.com"})
	assert.NoError(err)
	assert.IsType(&Webhook{}, n)

	n, err = FromConfig(media_fetcher.NotificationsConfig{
		Enabled:        true,
		WebhookURL:     "http://example.com",
		TelegramToken:  "t",
		TelegramChatID: "c",
	})
	assert.NoError(err)
	assert.IsType(Multi{}, n)

	_, err = FromConfig(media_fetcher.NotificationsConfig{Enabled: true, Template: "{{"})
	assert.Error(err)
}
