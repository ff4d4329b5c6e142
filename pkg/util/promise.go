package util

import (
	"context"
	"errors"
)

var ErrResolve = errors.New("promise resolved")

// Promise resolves at most once. Waiters block on Done and read the
// outcome from the context cause, ErrResolve meaning success.
type Promise struct {
	context.Context
	context.CancelCauseFunc
}

func NewPromise(ctx context.Context) *Promise {
	p := &Promise{}
	p.Context, p.CancelCauseFunc = context.WithCancelCause(ctx)
	return p
}

func (p *Promise) Fulfill(err error) {
	if err == nil {
		err = ErrResolve
	}
	p.CancelCauseFunc(err)
}

func (p *Promise) Reject(err error) {
	p.CancelCauseFunc(err)
}

func (p *Promise) Await() (err error) {
	<-p.Done()
	if err = context.Cause(p.Context); errors.Is(err, ErrResolve) {
		err = nil
	}
	return
}
