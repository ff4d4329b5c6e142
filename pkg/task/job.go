package task

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/util"
)

var idG atomic.Uint32

func GetNextTaskID() uint32 {
	return idG.Add(1)
}

// Job owns child tasks. Children are started one at a time inside the
// job's event loop, so sibling Start and Dispose never overlap.
type Job struct {
	Task
	addSub                chan ITask
	children              []ITask
	lazyRun               sync.Once
	childrenDisposed      chan struct{}
	childDisposeListeners []func(ITask)
}

func (*Job) GetTaskType() TaskType {
	return TASK_TYPE_JOB
}

func (mt *Job) getJob() *Job {
	return mt
}

func (mt *Job) waitChildrenDispose() {
	close(mt.addSub)
	<-mt.childrenDisposed
}

func (mt *Job) OnChildDispose(listener func(ITask)) {
	mt.childDisposeListeners = append(mt.childDisposeListeners, listener)
}

func (mt *Job) onDescendantsDispose(descendant ITask) {
	for _, listener := range mt.childDisposeListeners {
		listener(descendant)
	}
	if mt.parent != nil {
		mt.parent.onDescendantsDispose(descendant)
	}
}

func (mt *Job) onChildDispose(child ITask) {
	if child.getParent() == mt {
		mt.onDescendantsDispose(child)
		child.dispose()
	}
}

func (mt *Job) RangeSubTask(callback func(task ITask) bool) {
	for _, child := range mt.children {
		if !callback(child) {
			return
		}
	}
}

func (mt *Job) AddTask(t ITask, opt ...any) (task *Task) {
	mt.lazyRun.Do(func() {
		mt.childrenDisposed = make(chan struct{})
		mt.addSub = make(chan ITask, 10)
		go mt.run()
	})
	if task = t.GetTask(); task.Context == nil {
		task.parentCtx = mt.Context
		for _, o := range opt {
			switch v := o.(type) {
			case context.Context:
				task.parentCtx = v
			case RetryConfig:
				task.retry = v
			case *slog.Logger:
				task.Logger = v
			}
		}
		if task.parentCtx == nil {
			panic("add task with nil context")
		}
		task.parent = mt
		if task.ID == 0 {
			task.ID = GetNextTaskID()
		}
		task.Context, task.CancelCauseFunc = context.WithCancelCause(task.parentCtx)
		task.startup = util.NewPromise(task.Context)
		task.shutdown = util.NewPromise(context.Background())
		task.handler = t
		if task.Logger == nil {
			task.Logger = mt.Logger
		}
	}
	if mt.IsStopped() {
		task.startup.Reject(mt.StopReason())
		return
	}
	mt.addSub <- t
	return
}

func (mt *Job) run() {
	cases := []reflect.SelectCase{{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(mt.addSub)}}
	defer func() {
		if r := recover(); r != nil {
			if mt.Logger != nil {
				mt.Error("job panic", "err", r)
			}
			mt.Stop(ErrPanic)
		}
		stopReason := mt.StopReason()
		for _, child := range mt.children {
			child.Stop(stopReason)
			mt.onChildDispose(child)
		}
		mt.children = nil
		close(mt.childrenDisposed)
	}()
	for {
		chosen, rev, ok := reflect.Select(cases)
		if chosen == 0 {
			if !ok {
				return
			}
			if child := rev.Interface().(ITask); child.getParent() != mt || child.start() {
				mt.children = append(mt.children, child)
				cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(child.GetSignal())})
			}
		} else if !ok {
			taskIndex := chosen - 1
			child := mt.children[taskIndex]
			if mt.onChildDispose(child); child.checkRetry(child.StopReason()) {
				if child.reset(); child.start() {
					cases[chosen].Chan = reflect.ValueOf(child.GetSignal())
					continue
				}
			}
			mt.children = slices.Delete(mt.children, taskIndex, taskIndex+1)
			cases = slices.Delete(cases, chosen, chosen+1)
		}
		if !mt.handler.keepalive() && len(mt.children) == 0 {
			mt.Stop(ErrAutoStop)
		}
	}
}

// Work is a Job that stays alive with no children.
type Work struct {
	Job
}

func (*Work) keepalive() bool {
	return true
}

func (*Work) GetTaskType() TaskType {
	return TASK_TYPE_WORK
}
