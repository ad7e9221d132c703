package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dassyor/internal/model"
	"dassyor/internal/mq"
	"dassyor/internal/search"
	"dassyor/internal/service/idea"
	"dassyor/internal/util"
)

type fakeTasks struct {
	succeeded map[string]string
	failed    map[string]bool
	failStore bool
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{succeeded: map[string]string{}, failed: map[string]bool{}}
}

func (f *fakeTasks) MarkSuccess(ctx context.Context, taskID, analysis string, posts []*model.RelevantPost) error {
	if f.failStore {
		return errors.New("db unavailable")
	}
	f.succeeded[taskID] = analysis
	return nil
}

func (f *fakeTasks) MarkFailure(ctx context.Context, taskID string) error {
	f.failed[taskID] = true
	return nil
}

type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	return f.results, f.err
}

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, f.err
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) BulkSend(recipients []string, subject, htmlBody string) error {
	for _, r := range recipients {
		if err := f.Send(r, subject, htmlBody); err != nil {
			return err
		}
	}
	return nil
}

type fakeDedup struct {
	acquired map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{acquired: map[string]bool{}}
}

func (f *fakeDedup) AcquireOnce(ctx context.Context, handler, messageID string) (bool, error) {
	key := handler + ":" + messageID
	if f.acquired[key] {
		return false, nil
	}
	f.acquired[key] = true
	return true, nil
}

func (f *fakeDedup) Release(ctx context.Context, handler, messageID string) error {
	delete(f.acquired, handler+":"+messageID)
	return nil
}

func payloadBytes(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(mq.SearchRequestedPayload{
		TaskID: "task-1",
		Email:  "founder@example.com",
		Query:  "meal planner",
	})
	require.NoError(t, err)
	return b
}

func newHandler(tasks *fakeTasks, searcher *fakeSearcher, llm *fakeLLM, mail *fakeMailer, dedup *fakeDedup) *SearchRequestedHandler {
	pipeline := idea.NewService(tasks, searcher, llm, mail, "Dassyor", zap.NewNop())
	return NewSearchRequestedHandler(pipeline, dedup, zap.NewNop())
}

func TestHandleRunsPipeline(t *testing.T) {
	tasks := newFakeTasks()
	mail := &fakeMailer{}
	h := newHandler(tasks,
		&fakeSearcher{results: []search.Result{{Title: "Post", Link: "https://x/1", Snippet: "s"}}},
		&fakeLLM{reply: "Strong demand."},
		mail, newFakeDedup())

	err := h.Handle(context.Background(), "msg-1", payloadBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "Strong demand.", tasks.succeeded["task-1"])
	assert.Contains(t, mail.sent, "founder@example.com")
}

func TestHandleSkipsDuplicates(t *testing.T) {
	tasks := newFakeTasks()
	dedup := newFakeDedup()
	h := newHandler(tasks, &fakeSearcher{}, &fakeLLM{reply: "ok"}, &fakeMailer{}, dedup)

	require.NoError(t, h.Handle(context.Background(), "msg-1", payloadBytes(t)))
	require.NoError(t, h.Handle(context.Background(), "msg-1", payloadBytes(t)))

	// Only the first delivery ran the pipeline.
	assert.Len(t, tasks.succeeded, 1)
}

func TestHandleMalformedPayloadIsPermanent(t *testing.T) {
	h := newHandler(newFakeTasks(), &fakeSearcher{}, &fakeLLM{}, &fakeMailer{}, newFakeDedup())

	err := h.Handle(context.Background(), "msg-1", json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.False(t, util.IsRetryable(err))

	err = h.Handle(context.Background(), "msg-2", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.False(t, util.IsRetryable(err))
}

func TestHandleReleasesDedupOnFailure(t *testing.T) {
	tasks := newFakeTasks()
	dedup := newFakeDedup()
	searcher := &fakeSearcher{err: errors.New("timeout talking to search")}
	h := newHandler(tasks, searcher, &fakeLLM{reply: "term"}, &fakeMailer{}, dedup)

	err := h.Handle(context.Background(), "msg-1", payloadBytes(t))
	require.Error(t, err)
	assert.True(t, util.IsRetryable(err))

	// The retry can reprocess: the dedup slot was given back.
	searcher.err = nil
	require.NoError(t, h.Handle(context.Background(), "msg-1", payloadBytes(t)))
	assert.Len(t, tasks.succeeded, 1)
}

func TestHandleEmailFailureStillSucceeds(t *testing.T) {
	tasks := newFakeTasks()
	h := newHandler(tasks, &fakeSearcher{}, &fakeLLM{reply: "analysis"}, &fakeMailer{fail: true}, newFakeDedup())

	// Results are persisted even when the notification email fails.
	require.NoError(t, h.Handle(context.Background(), "msg-1", payloadBytes(t)))
	assert.Equal(t, "analysis", tasks.succeeded["task-1"])
}

func TestOnDeadLetterMarksFailure(t *testing.T) {
	tasks := newFakeTasks()
	h := newHandler(tasks, &fakeSearcher{}, &fakeLLM{}, &fakeMailer{}, newFakeDedup())

	h.OnDeadLetter(context.Background(), "msg-1", payloadBytes(t), errors.New("exhausted"))
	assert.True(t, tasks.failed["task-1"])
}
