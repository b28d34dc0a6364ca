package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d0ngw/visitcounter/cache"
	c "github.com/d0ngw/visitcounter/common"
	"github.com/gomodule/redigo/redis"
)

// RedisCounter use redis INCR implements Counter, the value lives only in redis
type RedisCounter struct {
	Name        string
	redisClient *cache.RedisClient
	cacheParam  *cache.ParamConf
}

// NewRedisCounter create RedisCounter, the key of counter `name` is cacheParam.KeyPrefix()+name
func NewRedisCounter(name string, redisClient *cache.RedisClient, cacheParam *cache.ParamConf) *RedisCounter {
	return &RedisCounter{
		Name:        name,
		redisClient: redisClient,
		cacheParam:  cacheParam,
	}
}

// Init implements Initable.Init
func (p *RedisCounter) Init() error {
	if c.HasNil(p.redisClient, p.cacheParam) {
		return fmt.Errorf("redisClient,cacheParam must be set")
	}
	if strings.ContainsAny(p.cacheParam.KeyPrefix(), " \r\n") {
		return fmt.Errorf("cacheParam.KeyPrefix %q must not contain blank", p.cacheParam.KeyPrefix())
	}
	return nil
}

// GetName implements Counter.GetName
func (p *RedisCounter) GetName() string {
	return p.Name
}

// Incr implements Counter.Incr
func (p *RedisCounter) Incr(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("counter name must not be empty")
	}
	v, err := p.redisClient.Incr(ctx, p.cacheParam.NewParamKey(name))
	if err != nil {
		return 0, classify("incr", name, err)
	}
	return v, nil
}

// Get implements Counter.Get
func (p *RedisCounter) Get(ctx context.Context, name string) (value int64, ok bool, err error) {
	if name == "" {
		return 0, false, fmt.Errorf("counter name must not be empty")
	}
	value, ok, err = p.redisClient.GetInt64(ctx, p.cacheParam.NewParamKey(name))
	if err != nil {
		return 0, false, classify("get", name, err)
	}
	return
}

// classify maps a redis client error to ErrStoreProtocol or ErrStoreUnavailable
func classify(op, name string, err error) error {
	kind := ErrStoreUnavailable
	var redisErr redis.Error
	if errors.As(err, &redisErr) || errors.Is(err, cache.ErrReplyType) {
		kind = ErrStoreProtocol
	}
	return &Error{Op: op, Name: name, Kind: kind, Err: err}
}
