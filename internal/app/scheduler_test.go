package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) CompleteFinished(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	completer := &countingCompleter{}
	s := NewScheduler(completer, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return completer.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	completer := &countingCompleter{err: errors.New("store down")}
	s := NewScheduler(completer, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool {
		return completer.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()
}
