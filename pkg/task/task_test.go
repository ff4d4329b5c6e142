package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func createRoot() *RootTask {
	var root RootTask
	root.Init(context.Background(), slog.New(slog.NewTextHandler(os.Stdout, nil)))
	return &root
}

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func Test_AddTask_AddsTaskSuccessfully(t *testing.T) {
	root := createRoot()
	task := &Task{}
	root.AddTask(task).WaitStarted()
	time.Sleep(10 * time.Millisecond)
	if len(root.children) != 1 {
		t.Errorf("expected 1 child task, got %d", len(root.children))
	}
}

type retryDemoTask struct {
	Task
}

func (task *retryDemoTask) Start() error {
	return io.ErrClosedPipe
}

func Test_RetryTask(t *testing.T) {
	root := createRoot()
	var demoTask retryDemoTask
	demoTask.SetRetry(3, 10*time.Millisecond)
	reason := root.AddTask(&demoTask).WaitStopped()
	if !errors.Is(reason, io.ErrClosedPipe) {
		t.Errorf("expected closed pipe, got %v", reason)
	}
	if demoTask.retry.RetryCount != 3 {
		t.Errorf("expected 3 retries, got %d", demoTask.retry.RetryCount)
	}
}

func Test_StopByContext(t *testing.T) {
	root := createRoot()
	var task Task
	ctx, cancel := context.WithCancel(context.Background())
	added := root.AddTask(&task, ctx)
	added.WaitStarted()
	time.AfterFunc(100*time.Millisecond, cancel)
	added.WaitStopped()
	if !task.StopReasonIs(context.Canceled) {
		t.Errorf("expected task to be stopped by context, got %v", task.StopReason())
	}
}

func Test_ParentStop(t *testing.T) {
	root := createRoot()
	parent := &Work{}
	root.AddTask(parent).WaitStarted()
	var task Task
	parent.AddTask(&task).WaitStarted()
	parent.Stop(ErrExit)
	parent.WaitStopped()
	if !task.StopReasonIs(ErrExit) {
		t.Errorf("expected task to be stopped, got %v", task.StopReason())
	}
}

type blockDemoTask struct {
	Task
}

func (task *blockDemoTask) Run() error {
	time.Sleep(10 * time.Millisecond)
	return nil
}

func Test_RunComplete_AutoStopsParent(t *testing.T) {
	root := createRoot()
	sub := &Job{}
	root.AddTask(sub).WaitStarted()
	var demoTask blockDemoTask
	sub.AddTask(&demoTask)
	if reason := sub.WaitStopped(); !errors.Is(reason, ErrAutoStop) {
		t.Errorf("expected auto stop, got %v", reason)
	}
	if !demoTask.StopReasonIs(ErrTaskComplete) {
		t.Errorf("expected task complete, got %v", demoTask.StopReason())
	}
}

type disposeDemoTask struct {
	Task
	disposed bool
}

func (task *disposeDemoTask) Dispose() {
	task.disposed = true
}

func Test_Dispose(t *testing.T) {
	root := createRoot()
	var demoTask disposeDemoTask
	added := root.AddTask(&demoTask)
	added.WaitStarted()
	demoTask.Stop(ErrExit)
	added.WaitStopped()
	if !demoTask.disposed {
		t.Errorf("expected dispose to run")
	}
}

func Test_Hooks(t *testing.T) {
	root := createRoot()
	called := 0
	var task Task
	task.OnStart(func() {
		called++
		if called != 1 {
			t.Errorf("expected 1, got %d", called)
		}
	})
	task.OnDispose(func() {
		called++
		if called != 2 {
			t.Errorf("expected 2, got %d", called)
		}
	})
	root.AddTask(&task).WaitStarted()
	task.Stop(ErrExit)
	task.WaitStopped()
	if called != 2 {
		t.Errorf("expected both hooks, got %d", called)
	}
}

func Test_Shutdown_DisposesChildren(t *testing.T) {
	root := createRoot()
	var demoTask disposeDemoTask
	root.AddTask(&demoTask).WaitStarted()
	root.Shutdown()
	if !demoTask.disposed {
		t.Errorf("expected shutdown to dispose children")
	}
	if !demoTask.StopReasonIs(ErrExit) {
		t.Errorf("expected exit reason, got %v", demoTask.StopReason())
	}
}
