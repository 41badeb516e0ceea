package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/interaction/domain"
)

type channelRepo struct {
	appended chan *domain.Interaction
	err      error
}

func (r *channelRepo) Append(ctx context.Context, i *domain.Interaction) error {
	if r.err != nil {
		return r.err
	}
	r.appended <- i
	return nil
}

type countingPublisher struct {
	mu        sync.Mutex
	published int
	err       error
	done      chan struct{}
}

func (p *countingPublisher) PublishInteraction(ctx context.Context, i *domain.Interaction) error {
	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	if p.done != nil {
		close(p.done)
	}
	return p.err
}

func TestRecordAppendsAsynchronously(t *testing.T) {
	repo := &channelRepo{appended: make(chan *domain.Interaction, 1)}
	recorder := NewAsyncRecorder(repo, nil, nil)

	recorder.Record(context.Background(), "alice", 7, domain.TypeView, 1)

	select {
	case got := <-repo.appended:
		assert.Equal(t, "alice", got.UserID)
		assert.Equal(t, uint(7), got.ProductID)
		assert.Equal(t, domain.TypeView, got.Type)
	case <-time.After(time.Second):
		t.Fatal("interaction was never appended")
	}
}

func TestRecordSurvivesRepositoryFailure(t *testing.T) {
	repo := &channelRepo{err: fmt.Errorf("store down")}
	recorder := NewAsyncRecorder(repo, nil, nil)

	// 失败只记日志，调用方不被打扰
	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), "bob", 1, domain.TypePurchase, 2)
	})
}

func TestRecordPublishesAfterAppend(t *testing.T) {
	repo := &channelRepo{appended: make(chan *domain.Interaction, 1)}
	pub := &countingPublisher{done: make(chan struct{})}
	recorder := NewAsyncRecorder(repo, pub, nil)

	recorder.Record(context.Background(), "carol", 3, domain.TypeCart, 1)

	select {
	case <-repo.appended:
	case <-time.After(time.Second):
		t.Fatal("interaction was never appended")
	}
	select {
	case <-pub.done:
	case <-time.After(time.Second):
		t.Fatal("interaction was never published")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Equal(t, 1, pub.published)
}
