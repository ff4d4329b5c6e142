package task

import (
	"context"
	"log/slog"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/util"
)

// RootTask anchors a task tree to a caller context. It is never started by a
// parent, so Init primes the fields AddTask expects before any child arrives.
type RootTask struct {
	Work
}

func (m *RootTask) Init(ctx context.Context, logger *slog.Logger) {
	m.Context, m.CancelCauseFunc = context.WithCancelCause(ctx)
	m.handler = m
	m.Logger = logger
	m.startup = util.NewPromise(m.Context)
	m.shutdown = util.NewPromise(context.Background())
	m.startup.Fulfill(nil)
	m.state = TASK_STATE_STARTED
}

func (m *RootTask) Shutdown() {
	if !m.IsStopped() {
		m.Stop(ErrExit)
	}
	m.dispose()
}
