package memstore

import (
	"context"

	"go.uber.org/zap"
)

type undoKey struct{}

type undoLog struct {
	steps []func()
}

func (l *undoLog) push(fn func()) {
	l.steps = append(l.steps, fn)
}

func undoFrom(ctx context.Context) *undoLog {
	l, _ := ctx.Value(undoKey{}).(*undoLog)
	return l
}

// transactor gives all-or-nothing writes by replaying an undo log on
// failure. Isolation between concurrent units of work is the caller's job
// (the engine serialises them with per-seat and per-wallet locks).
type transactor struct {
	s *Store
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if undoFrom(ctx) != nil {
		return fn(ctx)
	}

	l := &undoLog{}
	defer func() {
		p := recover()
		if p != nil || err != nil {
			t.rollback(l)
		}
		if p != nil {
			panic(p)
		}
	}()

	return fn(context.WithValue(ctx, undoKey{}, l))
}

func (t *transactor) rollback(l *undoLog) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for i := len(l.steps) - 1; i >= 0; i-- {
		l.steps[i]()
	}
	if len(l.steps) > 0 {
		t.s.log.Debug("Rolled back unit of work", zap.Int("steps", len(l.steps)))
	}
}
