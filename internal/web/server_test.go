package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"tiku/internal/bank"
	"tiku/internal/models"
	"tiku/internal/session"
)

func seededBank() *bank.Bank {
	b := bank.New()
	b.Load([]models.Question{
		{Title: "T1", Answer: models.AnswerCorrect, Options: [models.OptionCount]string{"正确", "错误"}},
		{Title: "T2", Answer: "B", Options: [models.OptionCount]string{"a", "b", "c"}},
	})
	return b
}

func TestStatusTracksEvents(t *testing.T) {
	s := NewServer(seededBank())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	s.Publish(session.Event{Type: "batch", Message: "本轮新增 3 题", Batch: 2, Added: 3, Total: 5, Time: time.Now()})

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	want := Status{Batches: 2, Total: 5, LastAdded: 3, Message: "本轮新增 3 题"}
	if diff := cmp.Diff(want, status); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestQuestionsSnapshot(t *testing.T) {
	s := NewServer(seededBank())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/questions?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []models.Question
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	require.Equal(t, "T1", records[0].Title)

	bad, err := http.Get(ts.URL + "/api/questions?limit=x")
	require.NoError(t, err)
	bad.Body.Close()
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestQuestionsEmptyBank(t *testing.T) {
	s := NewServer(bank.New())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRejectsWrites(t *testing.T) {
	s := NewServer(bank.New())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/questions", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventStream(t *testing.T) {
	s := NewServer(bank.New())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() ProgressEvent {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				var e ProgressEvent
				require.NoError(t, json.Unmarshal([]byte(data), &e))
				return e
			}
		}
	}

	require.Equal(t, "connected", readEvent().Type)

	// 连接握手之后客户端已注册
	s.Publish(session.Event{Type: "quit", Message: "会话结束", Total: 7, Time: time.Now()})
	e := readEvent()
	require.Equal(t, "quit", e.Type)
	require.Equal(t, 7, e.Total)
}
