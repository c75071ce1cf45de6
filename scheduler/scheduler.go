package scheduler

import (
	"sync"
	"time"

	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/service"
	"github.com/inboxops/relay/util"
	"go.uber.org/zap"
)

// Scheduler fires schedule-triggered workflows. Each tick it scans the active
// schedule workflows and enqueues a run for any whose interval has elapsed
// since its last run started.
type Scheduler struct {
	workflowDao      persistence.WorkflowDao
	runDao           persistence.RunDao
	executionService *service.WorkflowExecutionService
	tickWorker       *util.TickWorker
}

func NewScheduler(workflowDao persistence.WorkflowDao, runDao persistence.RunDao,
	executionService *service.WorkflowExecutionService, tickSeconds int, wg *sync.WaitGroup) *Scheduler {
	if tickSeconds <= 0 {
		tickSeconds = 30
	}
	s := &Scheduler{
		workflowDao:      workflowDao,
		runDao:           runDao,
		executionService: executionService,
	}
	s.tickWorker = util.NewTickWorker("schedule-trigger", time.Duration(tickSeconds)*time.Second, s.tick, wg)
	return s
}

func (s *Scheduler) Start() {
	s.tickWorker.Start()
}

func (s *Scheduler) Stop() error {
	s.tickWorker.Stop()
	return nil
}

func (s *Scheduler) tick() {
	workflows, err := s.workflowDao.ListActiveByTrigger(model.TRIGGER_TYPE_SCHEDULE)
	if err != nil {
		logger.Error("error listing scheduled workflows", zap.Error(err))
		return
	}
	now := time.Now().Unix()
	for _, wf := range workflows {
		interval, ok := intervalSeconds(wf.TriggerConfig)
		if !ok {
			continue
		}
		lastStarted, err := s.runDao.LastRunStartedAt(wf.Id)
		if err != nil {
			logger.Error("error reading last run time", zap.String("workflow", wf.Name), zap.Error(err))
			continue
		}
		if now-lastStarted < interval {
			continue
		}
		runId, err := s.executionService.StartRun(wf.OrgId, wf.Id, map[string]any{"scheduled_at": now})
		if err != nil {
			logger.Error("error starting scheduled run", zap.String("workflow", wf.Name), zap.Error(err))
			continue
		}
		logger.Info("scheduled run enqueued", zap.String("workflow", wf.Name), zap.String("runId", runId))
	}
}

func intervalSeconds(triggerConfig map[string]any) (int64, bool) {
	switch v := triggerConfig["interval_seconds"].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
