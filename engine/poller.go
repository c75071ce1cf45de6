package engine

import (
	"sync"
	"time"

	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/util"
	"go.uber.org/zap"
)

// Poller moves queued run requests from the run queue into the engine's worker
// pool. The queue is the explicit handoff between trigger ingestion and
// execution; HTTP handlers never execute steps themselves.
type Poller struct {
	queue          persistence.Queue
	engine         *RunEngine
	encoderDecoder util.EncoderDecoder[model.RunExecutionRequest]
	batchSize      int
	tickWorker     *util.TickWorker
}

func NewPoller(queue persistence.Queue, engine *RunEngine, batchSize int, wg *sync.WaitGroup) *Poller {
	if batchSize <= 0 {
		batchSize = 10
	}
	p := &Poller{
		queue:          queue,
		engine:         engine,
		encoderDecoder: util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
		batchSize:      batchSize,
	}
	p.tickWorker = util.NewTickWorker("run-queue-poller", 200*time.Millisecond, p.poll, wg)
	return p
}

func (p *Poller) Start() {
	p.tickWorker.Start()
}

func (p *Poller) Stop() error {
	p.tickWorker.Stop()
	return nil
}

func (p *Poller) poll() {
	messages, err := p.queue.Pop(persistence.RunQueueName, p.batchSize)
	if err != nil {
		logger.Error("error polling run queue", zap.Error(err))
		return
	}
	for _, message := range messages {
		req, err := p.encoderDecoder.Decode([]byte(message))
		if err != nil {
			logger.Error("dropping undecodable run request", zap.Error(err))
			continue
		}
		p.engine.Submit(*req)
	}
}
