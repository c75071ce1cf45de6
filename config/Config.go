package config

type Config struct {
	HttpPort            int
	SqliteConfig        SqliteStorageConfig
	RedisQueueConfig    RedisQueueConfig
	EncryptionKey       string
	ExecutorCapacity    int
	PollBatchSize       int
	SchedulerTickSecond int
	ReaperConfig        ReaperConfig
}

type SqliteStorageConfig struct {
	Path string
}

type RedisQueueConfig struct {
	Addrs     []string
	Namespace string
}

type ReaperConfig struct {
	Enabled           bool
	SweepTickSecond   int
	AbandonedAfterMin int
}
