package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShared_CancelledLeaderDoesNotFailFollowers(t *testing.T) {
	s := NewStore(logging.Discard(), nil)

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	queryCtx := make(chan context.Context, 2)
	query := func(ctx context.Context) ([]Product, error) {
		queryCtx <- ctx
		once.Do(func() { close(started) })
		<-release
		return []Product{{ID: "1", Name: "Apple"}}, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.shared(leaderCtx, "all", query)
		leaderErr <- err
	}()
	<-started

	followerOut := make(chan []Product, 1)
	followerErr := make(chan error, 1)
	go func() {
		out, err := s.shared(context.Background(), "all", query)
		followerOut <- out
		followerErr <- err
	}()

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	qctx := <-queryCtx
	assert.NoError(t, qctx.Err(), "query context must outlive the caller that started it")

	close(release)
	require.NoError(t, <-followerErr)
	got := <-followerOut
	require.Len(t, got, 1)
	assert.Equal(t, "Apple", got[0].Name)
}

func TestShared_PropagatesQueryError(t *testing.T) {
	s := NewStore(logging.Discard(), nil)
	_, err := s.shared(context.Background(), "1", func(context.Context) ([]Product, error) {
		return nil, context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
