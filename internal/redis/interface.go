package redis

import (
	"github.com/redis/go-redis/v9"
)

// Client wraps redis.UniversalClient to allow for easy mocking
type Client interface {
	redis.UniversalClient
}

// Pipeliner wraps redis.Pipeliner for batch operations
type Pipeliner interface {
	redis.Pipeliner
}

// TxFailedErr is returned by EXEC when a watched key changed.
var TxFailedErr = redis.TxFailedErr

// Nil is returned by reads of missing keys.
var Nil = redis.Nil
