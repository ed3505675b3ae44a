package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"passport-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu    sync.Mutex
	sent  []string
	err   error
	block chan struct{}
}

func (t *recordingTransport) SendStatusEmail(ctx context.Context, r *domain.RenewalRequest, to string) error {
	if t.block != nil {
		<-t.block
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, r.ID+"->"+to)
	return t.err
}

func (t *recordingTransport) calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

func event(id, email string) StatusChanged {
	return StatusChanged{Renewal: domain.RenewalRequest{ID: id, ApplicantEmail: email, Status: domain.StatusVerified}}
}

func TestPipeline_DeliversAndDrainsOnClose(t *testing.T) {
	tr := &recordingTransport{}
	p := New(tr)
	p.Start(context.Background())

	require.True(t, p.Publish(event("r1", "nimal@example.lk")))
	require.True(t, p.Publish(event("r2", "Kamala <kamala@example.lk>")))
	p.Close()

	assert.Equal(t, []string{"r1->nimal@example.lk", "r2->kamala@example.lk"}, tr.calls())
	assert.EqualValues(t, 2, p.Stats().Delivered)
}

func TestPipeline_NoRecipientShortCircuits(t *testing.T) {
	tr := &recordingTransport{}
	p := New(tr)
	p.Start(context.Background())

	p.Publish(event("r1", ""))
	p.Publish(event("r2", "not an address"))
	p.Close()

	assert.Empty(t, tr.calls())
	assert.EqualValues(t, 2, p.Stats().Skipped)
}

func TestPipeline_TransportFailureIsSwallowed(t *testing.T) {
	tr := &recordingTransport{err: errors.New("smtp: connection refused")}
	p := New(tr)
	p.Start(context.Background())

	p.Publish(event("r1", "nimal@example.lk"))
	p.Publish(event("r2", "nimal@example.lk"))
	p.Close()

	stats := p.Stats()
	assert.EqualValues(t, 2, stats.Failed)
	assert.Len(t, tr.calls(), 2, "a failure does not stop the worker")
}

func TestPipeline_PublishNeverBlocks(t *testing.T) {
	tr := &recordingTransport{block: make(chan struct{})}
	p := New(tr, WithBuffer(1))
	p.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			p.Publish(event("r", "nimal@example.lk"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stuck transport")
	}

	close(tr.block)
	p.Close()
	assert.Positive(t, p.Stats().Dropped)
}

func TestPipeline_PublishAfterCloseIsDropped(t *testing.T) {
	p := New(&recordingTransport{})
	p.Close()
	assert.False(t, p.Publish(event("r1", "nimal@example.lk")))
}
