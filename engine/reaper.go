package engine

import (
	"sync"
	"time"

	"github.com/inboxops/relay/config"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/util"
	"go.uber.org/zap"
)

const abandonedRunMessage = "abandoned by recovery sweep"

// Reaper fails runs that have sat in running state past the cutoff, typically
// because the process died mid-run. Without it such runs stay running forever.
type Reaper struct {
	runDao        persistence.RunDao
	abandonedTime time.Duration
	tickWorker    *util.TickWorker
}

func NewReaper(runDao persistence.RunDao, conf config.ReaperConfig, wg *sync.WaitGroup) *Reaper {
	sweepTick := time.Duration(conf.SweepTickSecond) * time.Second
	if sweepTick <= 0 {
		sweepTick = time.Minute
	}
	abandonedTime := time.Duration(conf.AbandonedAfterMin) * time.Minute
	if abandonedTime <= 0 {
		abandonedTime = time.Hour
	}
	r := &Reaper{
		runDao:        runDao,
		abandonedTime: abandonedTime,
	}
	r.tickWorker = util.NewTickWorker("run-reaper", sweepTick, r.sweep, wg)
	return r
}

func (r *Reaper) Start() {
	r.tickWorker.Start()
}

func (r *Reaper) Stop() error {
	r.tickWorker.Stop()
	return nil
}

func (r *Reaper) sweep() {
	count, err := r.runDao.FailAbandoned(r.abandonedTime, abandonedRunMessage)
	if err != nil {
		logger.Error("error sweeping abandoned runs", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Warn("failed abandoned runs", zap.Int64("count", count))
	}
}
