package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rd "github.com/go-redis/redis/v9"
	"github.com/inboxops/relay/config"
	"github.com/inboxops/relay/logger"
	"github.com/inboxops/relay/persistence"
	"go.uber.org/zap"
)

var _ persistence.Queue = new(redisQueue)

type redisQueue struct {
	redisClient rd.UniversalClient
	namespace   string
}

func NewRedisQueue(conf config.RedisQueueConfig) *redisQueue {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &redisQueue{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

func (rq *redisQueue) getNamespaceKey(args ...string) string {
	return fmt.Sprintf("%s:%s", rq.namespace, strings.Join(args, ":"))
}

func (rq *redisQueue) Push(queueName string, message []byte) error {
	key := rq.getNamespaceKey(queueName)
	ctx := context.Background()
	err := rq.redisClient.LPush(ctx, key, message).Err()
	if err != nil {
		logger.Error("error while push to redis list", zap.String("queue", key), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) Pop(queueName string, batchSize int) ([]string, error) {
	key := rq.getNamespaceKey(queueName)
	ctx := context.Background()
	res, err := rq.redisClient.RPopCount(ctx, key, batchSize).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []string{}, nil
		}
		logger.Error("error while pop from redis list", zap.String("queue", key), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return res, nil
}
