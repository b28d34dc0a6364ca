package cache

import (
	"context"
	"errors"
	"fmt"

	c "github.com/d0ngw/visitcounter/common"
	"github.com/gomodule/redigo/redis"
)

// Redis commands
const (
	INCRBY = "INCRBY"
	GET    = "GET"
	EXPIRE = "EXPIRE"
	PING   = "PING"
)

// ReplyPong is the reply of PING
const ReplyPong = "PONG"

var (
	// ErrNoGroup the group of param is not configured
	ErrNoGroup = errors.New("no redis group")
	// ErrReplyType the reply can't be converted to the expected type
	ErrReplyType = errors.New("unexpected redis reply")
)

// RedisClient 按照Param的group和key选择Redis实例执行命令,可以被并发使用
type RedisClient struct {
	groups map[string][]*RedisServer
}

// NewRedisClient create RedisClient with groups
func NewRedisClient(groups map[string][]*RedisServer) *RedisClient {
	return &RedisClient{groups: groups}
}

// NewRedisClientWithConf create RedisClient with parsed conf
func NewRedisClientWithConf(conf *RedisConf) *RedisClient {
	return NewRedisClient(conf.groups)
}

// server 在group中按照key的hash选择实例
func (p *RedisClient) server(param Param) (*RedisServer, error) {
	servers := p.groups[param.Group()]
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w:%s", ErrNoGroup, param.Group())
	}
	return servers[c.Fnv32Hashcode(param.Key())%len(servers)], nil
}

// Do 执行命令,等待连接和执行命令的总时间不超过server的CallTimeout
func (p *RedisClient) Do(ctx context.Context, param Param, commandName string, args ...interface{}) (reply interface{}, err error) {
	server, err := p.server(param)
	if err != nil {
		return nil, err
	}
	return server.do(ctx, commandName, args...)
}

func (p *RedisServer) do(ctx context.Context, commandName string, args ...interface{}) (reply interface{}, err error) {
	if p.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.callTimeout)
		defer cancel()
	}
	conn, err := p.GetConn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return redis.DoContext(conn, ctx, commandName, args...)
}

// IncrBy 将param的值原子地增加delta,返回增加后的值;key不存在时从0开始.
// 如果param设置了过期时间,在key被创建时设置过期
func (p *RedisClient) IncrBy(ctx context.Context, param Param, delta int64) (int64, error) {
	reply, err := p.Do(ctx, param, INCRBY, param.Key(), delta)
	if err != nil {
		return 0, err
	}
	v, err := redis.Int64(reply, nil)
	if err != nil {
		return 0, fmt.Errorf("%w:%v", ErrReplyType, err)
	}
	if param.Expire() > 0 && v == delta {
		if _, err := p.Do(ctx, param, EXPIRE, param.Key(), param.Expire()); err != nil {
			c.Warnf("expire %s fail,err:%v", param.Key(), err)
		}
	}
	return v, nil
}

// Incr 将param的值原子地加1
func (p *RedisClient) Incr(ctx context.Context, param Param) (int64, error) {
	return p.IncrBy(ctx, param, 1)
}

// GetInt64 取得param的整数值,key不存在时ok为false
func (p *RedisClient) GetInt64(ctx context.Context, param Param) (v int64, ok bool, err error) {
	reply, err := p.Do(ctx, param, GET, param.Key())
	if err != nil {
		return
	}
	if reply == nil {
		return 0, false, nil
	}
	v, err = redis.Int64(reply, nil)
	if err != nil {
		return 0, false, fmt.Errorf("%w:%v", ErrReplyType, err)
	}
	return v, true, nil
}

// ActiveCount group中所有实例的活跃连接数
func (p *RedisClient) ActiveCount(group string) int {
	count := 0
	for _, server := range p.groups[group] {
		count += server.ActiveCount()
	}
	return count
}

// Ping 检查group中的所有实例是否可用
func (p *RedisClient) Ping(ctx context.Context, group string) error {
	servers := p.groups[group]
	if len(servers) == 0 {
		return fmt.Errorf("%w:%s", ErrNoGroup, group)
	}
	for _, server := range servers {
		pong, err := redis.String(server.do(ctx, PING))
		if err != nil {
			return fmt.Errorf("ping %s fail:%w", server.Addr(), err)
		}
		if pong != ReplyPong {
			return fmt.Errorf("%w:ping %s got %s", ErrReplyType, server.Addr(), pong)
		}
	}
	return nil
}

// Close 关闭所有实例的连接池
func (p *RedisClient) Close() error {
	var lastErr error
	for group, servers := range p.groups {
		for _, server := range servers {
			if err := server.close(); err != nil {
				c.Errorf("close redis %s in group %s fail,err:%v", server.Addr(), group, err)
				lastErr = err
			}
		}
	}
	return lastErr
}
