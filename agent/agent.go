package agent

import (
	"database/sql"
	"sync"

	"github.com/inboxops/relay/config"
	"github.com/inboxops/relay/engine"
	"github.com/inboxops/relay/integration"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/metadata"
	"github.com/inboxops/relay/persistence"
	redisq "github.com/inboxops/relay/persistence/redis"
	"github.com/inboxops/relay/persistence/sqlite"
	"github.com/inboxops/relay/rest"
	"github.com/inboxops/relay/scheduler"
	"github.com/inboxops/relay/service"
	"github.com/inboxops/relay/util"
)

type Agent struct {
	Config            config.Config
	db                *sql.DB
	workflowDao       persistence.WorkflowDao
	runDao            persistence.RunDao
	credentialDao     persistence.CredentialDao
	queue             persistence.Queue
	cipher            *util.Cipher
	registry          *integration.Registry
	metadataService   metadata.MetadataService
	executionService  *service.WorkflowExecutionService
	credentialService *service.CredentialService
	runEngine         *engine.RunEngine
	poller            *engine.Poller
	reaper            *engine.Reaper
	scheduler         *scheduler.Scheduler
	httpServer        *rest.Server
	shutdown          bool
	shutdowns         chan struct{}
	shutdownLock      sync.Mutex
	wg                sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupStorage,
		a.setupServices,
		a.setupEngine,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	db, err := sqlite.Open(a.Config.SqliteConfig)
	if err != nil {
		return err
	}
	a.db = db
	a.workflowDao = sqlite.NewSqliteWorkflowDao(db)
	a.runDao = sqlite.NewSqliteRunDao(db)
	a.credentialDao = sqlite.NewSqliteCredentialDao(db)
	a.queue = redisq.NewRedisQueue(a.Config.RedisQueueConfig)
	return nil
}

func (a *Agent) setupServices() error {
	cipher, err := util.NewCipher(a.Config.EncryptionKey)
	if err != nil {
		return err
	}
	a.cipher = cipher
	a.registry = integration.NewRegistry(nil)
	a.metadataService = metadata.NewMetadataService(a.workflowDao, a.registry)
	a.executionService = service.NewWorkflowExecutionService(a.metadataService, a.runDao, a.credentialDao, a.queue)
	a.credentialService = service.NewCredentialService(a.credentialDao, a.registry, cipher)
	return nil
}

func (a *Agent) setupEngine() error {
	a.runEngine = engine.NewRunEngine(a.metadataService, a.runDao, a.credentialDao,
		a.registry, a.cipher, a.Config.ExecutorCapacity, &a.wg)
	a.runEngine.Start()
	a.poller = engine.NewPoller(a.queue, a.runEngine, a.Config.PollBatchSize, &a.wg)
	a.poller.Start()
	a.scheduler = scheduler.NewScheduler(a.workflowDao, a.runDao, a.executionService,
		a.Config.SchedulerTickSecond, &a.wg)
	a.scheduler.Start()
	if a.Config.ReaperConfig.Enabled {
		a.reaper = engine.NewReaper(a.runDao, a.Config.ReaperConfig, &a.wg)
		a.reaper.Start()
	}
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.executionService, a.credentialService)
	return err
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		a.scheduler.Stop,
		a.poller.Stop,
		a.runEngine.Stop,
		func() error {
			if a.reaper != nil {
				return a.reaper.Stop()
			}
			return nil
		},
		func() error { return a.db.Close() },
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
