package util

import (
	"sync"

	"github.com/inboxops/relay/logger"
	"go.uber.org/zap"
)

type Task any

// Worker consumes tasks from a shared channel. Several workers draining the
// same channel form a pool; each worker handles one task at a time.
type Worker struct {
	name     string
	stop     chan struct{}
	wg       *sync.WaitGroup
	handler  func(Task) error
	taskChan chan Task
}

func NewWorker(name string, wg *sync.WaitGroup, taskChan chan Task, handler func(Task) error) *Worker {
	return &Worker{
		name:     name,
		stop:     make(chan struct{}),
		wg:       wg,
		handler:  handler,
		taskChan: taskChan,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case task := <-w.taskChan:
				err := w.handler(task)
				if err != nil {
					logger.Error("error executing task in worker", zap.String("worker", w.name), zap.Error(err))
				}
			case <-w.stop:
				logger.Info("stopping worker", zap.String("worker", w.name))
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	w.stop <- struct{}{}
}
