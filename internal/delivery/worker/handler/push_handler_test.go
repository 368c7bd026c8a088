package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofialert/config"
	"sofialert/internal/domain/service"
	"sofialert/internal/usecase"
)

type fakeMatcher struct {
	summary *usecase.MatchRunSummary
	err     error
	calls   int
}

func (m *fakeMatcher) Run(_ context.Context) (*usecase.MatchRunSummary, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	return m.summary, nil
}

func newTestHandler(matcher *fakeMatcher) *PushHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewPushHandler(PushHandlerParams{
		Config:   &config.Config{},
		Logger:   logger,
		Matching: matcher,
	})
}

func doPush(t *testing.T, h *PushHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.HandlePush(e.NewContext(req, rec)))

	return rec
}

func envelope(t *testing.T, event *service.MatchRunEvent) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	return fmt.Sprintf(`{"message": {"data": %q, "messageId": "m1"}, "subscription": "s"}`,
		base64.StdEncoding.EncodeToString(data))
}

func TestHandlePush_RunsMatching(t *testing.T) {
	matcher := &fakeMatcher{summary: &usecase.MatchRunSummary{MessagesScanned: 3, MatchesCreated: 2, PushesSent: 4}}
	h := newTestHandler(matcher)

	rec := doPush(t, h, envelope(t, &service.MatchRunEvent{Reason: "message-finalized", MessageID: "msg-1"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, matcher.calls)

	var summary usecase.MatchRunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.MatchesCreated)
}

func TestHandlePush_EmptyDataIsManualTrigger(t *testing.T) {
	matcher := &fakeMatcher{summary: &usecase.MatchRunSummary{}}
	h := newTestHandler(matcher)

	rec := doPush(t, h, `{"message": {"messageId": "m1"}, "subscription": "s"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, matcher.calls)
}

func TestHandlePush_BadEnvelopeDoesNotRetry(t *testing.T) {
	matcher := &fakeMatcher{summary: &usecase.MatchRunSummary{}}
	h := newTestHandler(matcher)

	rec := doPush(t, h, `{"message": {"data": "not-base64!!", "messageId": "m1"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, matcher.calls)
}

func TestHandlePush_RunFailureAsksForRedelivery(t *testing.T) {
	matcher := &fakeMatcher{err: assert.AnError}
	h := newTestHandler(matcher)

	rec := doPush(t, h, envelope(t, &service.MatchRunEvent{Reason: "manual"}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePush_RequestIDFromAttributes(t *testing.T) {
	matcher := &fakeMatcher{summary: &usecase.MatchRunSummary{}}
	h := newTestHandler(matcher)

	body := `{"message": {"attributes": {"request_id": "req-42"}, "messageId": "m1"}}`
	rec := doPush(t, h, body)

	assert.Equal(t, http.StatusOK, rec.Code)
}
