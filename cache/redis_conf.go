package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	c "github.com/d0ngw/visitcounter/common"
	"github.com/gomodule/redigo/redis"
)

// Redis连接池的默认参数,时间单位毫秒
const (
	DefaultConnectTimout = 5 * 1000
	DefaultReadTimeout   = 5 * 1000
	DefaultWriteTimeout  = 5 * 1000
	DefaultCallTimeout   = 2 * 1000
	DefaultMaxActive     = 100
	DefaultMaxIdle       = 2
	DefaultIdleTimeout   = 60 * 1000
)

// DefaultGroup 没有配置groups时,所有的server组成的组
const DefaultGroup = "default"

// RedisConfigurer Redis配置器
type RedisConfigurer interface {
	c.Configurer
	RedisConfig() *RedisConf
}

// RedisPoolConf  Redis连接池配置,没有配置(0)的字段使用默认值,负数表示不限制
type RedisPoolConf struct {
	ConnectTimeout int `yaml:"connect_timeout"` //连接超时时间,单位毫秒
	ReadTimeout    int `yaml:"read_timeout"`    //读取超时,单位毫秒
	WriteTimeout   int `yaml:"write_timeout"`   //写取超时,单位毫秒
	CallTimeout    int `yaml:"call_timeout"`    //单次调用(含等待连接)的超时,单位毫秒
	MaxIdle        int `yaml:"max_idle"`        //最大空闲连接
	MaxActive      int `yaml:"max_active"`      //最大活跃连接
	IdleTimeout    int `yaml:"idle_timeout"`    //空闲连接的超时时间,单位毫秒
}

// NewDefaultPoolConf 默认的连接池配置
func NewDefaultPoolConf() *RedisPoolConf {
	return &RedisPoolConf{
		ConnectTimeout: DefaultConnectTimout,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		CallTimeout:    DefaultCallTimeout,
		MaxActive:      DefaultMaxActive,
		MaxIdle:        DefaultMaxIdle,
		IdleTimeout:    DefaultIdleTimeout,
	}
}

// withDefaults 返回合并了默认值的配置,不修改p
func (p *RedisPoolConf) withDefaults() *RedisPoolConf {
	merged := NewDefaultPoolConf()
	if p == nil {
		return merged
	}
	fill := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	fill(&merged.ConnectTimeout, p.ConnectTimeout)
	fill(&merged.ReadTimeout, p.ReadTimeout)
	fill(&merged.WriteTimeout, p.WriteTimeout)
	fill(&merged.CallTimeout, p.CallTimeout)
	fill(&merged.MaxIdle, p.MaxIdle)
	fill(&merged.MaxActive, p.MaxActive)
	fill(&merged.IdleTimeout, p.IdleTimeout)
	return merged
}

// millis 毫秒转为Duration,负数转为0(不限制)
func millis(ms int) time.Duration {
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// limit 负数转为0(不限制)
func limit(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// RedisServer Redis实例的配置
type RedisServer struct {
	ID          string      `yaml:"id"`   //Redis实例的id
	Host        string      `yaml:"host"` //Redis主机地址
	Port        int         `yaml:"port"` //Redis的端口
	Auth        string      `yaml:"auth"` //Redis认证密码
	DB          int         `yaml:"db"`   //Redis的db
	pool        *redis.Pool //Redis实例的连接池
	poolConf    *RedisPoolConf
	callTimeout time.Duration
}

// Addr host:port
func (p *RedisServer) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// initPool 使用指定的参数初始化pool
func (p *RedisServer) initPool(poolConf *RedisPoolConf) error {
	if p.pool != nil {
		return fmt.Errorf("server %s already inited", p.ID)
	}
	poolConf = poolConf.withDefaults()
	options := []redis.DialOption{
		redis.DialConnectTimeout(millis(poolConf.ConnectTimeout)),
		redis.DialReadTimeout(millis(poolConf.ReadTimeout)),
		redis.DialWriteTimeout(millis(poolConf.WriteTimeout)),
	}
	if p.Auth != "" {
		options = append(options, redis.DialPassword(p.Auth))
	}
	if p.DB > 0 {
		options = append(options, redis.DialDatabase(p.DB))
	}

	addr := p.Addr()
	p.pool = &redis.Pool{
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr, options...)
		},
		TestOnBorrow: func(conn redis.Conn, idleAt time.Time) error {
			if time.Since(idleAt) < time.Minute {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
		MaxActive:   limit(poolConf.MaxActive),
		MaxIdle:     limit(poolConf.MaxIdle),
		IdleTimeout: millis(poolConf.IdleTimeout),
		Wait:        true,
	}
	p.poolConf = poolConf
	p.callTimeout = millis(poolConf.CallTimeout)
	return nil
}

// GetConn acquire redis conn,ctx控制等待连接的时间
func (p *RedisServer) GetConn(ctx context.Context) (redis.Conn, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("no pool for server %s", p.ID)
	}
	return p.pool.GetContext(ctx)
}

// ActiveCount 活跃的连接数
func (p *RedisServer) ActiveCount() int {
	if p.pool == nil {
		return 0
	}
	return p.pool.ActiveCount()
}

func (p *RedisServer) close() error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Close()
}

// RedisConf redis config
type RedisConf struct {
	Servers   []*RedisServer            `yaml:"servers"`      //实例列表
	Groups    map[string][]string       `yaml:"groups"`       //Redis组定义,key为组ID;value为Server的id列表
	Pool      *RedisPoolConf            `yaml:"pool"`         //默认的链接池配置
	GroupPool map[string]*RedisPoolConf `yaml:"groups_pools"` //Redis组的连接池配置
	groups    map[string][]*RedisServer
}

// NewSingleRedisConf 只有一个Redis实例的配置,实例属于DefaultGroup
func NewSingleRedisConf(host string, port int) *RedisConf {
	return &RedisConf{
		Servers: []*RedisServer{{ID: DefaultGroup, Host: host, Port: port}},
	}
}

// Parse implements Configurer interface
func (p *RedisConf) Parse() error {
	if p == nil {
		c.Warnf("no redis conf")
		return nil
	}
	if p.groups != nil {
		return fmt.Errorf("redis conf already parsed")
	}
	servers := map[string]*RedisServer{}

	//解析,并检查server的配置
	var dupCheck = map[string]struct{}{}
	for _, server := range p.Servers {
		if server == nil || c.IsEmpty(server.ID, server.Host) {
			return fmt.Errorf("invalid redis server conf,id and host must not be empty")
		}
		if server.Port <= 0 {
			return fmt.Errorf("invalid redis server conf,port %d", server.Port)
		}

		id := "id " + server.ID
		if _, ok := dupCheck[id]; ok {
			return fmt.Errorf("duplicate server:%s", id)
		}
		dupCheck[id] = struct{}{}

		addr := fmt.Sprintf("%s/%d", server.Addr(), server.DB)
		if _, ok := dupCheck[addr]; ok {
			return fmt.Errorf("duplicate server: %s", addr)
		}
		dupCheck[addr] = struct{}{}
		servers[server.ID] = server
	}

	groupDefs := p.Groups
	if len(groupDefs) == 0 && len(servers) > 0 {
		ids := make([]string, 0, len(servers))
		for id := range servers {
			ids = append(ids, id)
		}
		groupDefs = map[string][]string{DefaultGroup: ids}
	}

	//解析并检查group
	groups := map[string][]*RedisServer{}
	for groupID, groupServers := range groupDefs {
		if groupID == "" {
			return fmt.Errorf("invalid redis group id")
		}
		if len(groupServers) == 0 {
			return fmt.Errorf("redis group id %s has no servers", groupID)
		}
		dupCheck = map[string]struct{}{}
		for _, serverID := range groupServers {
			if _, ok := dupCheck[serverID]; ok {
				return fmt.Errorf("duplicate server id %s in group %s", serverID, groupID)
			}
			dupCheck[serverID] = struct{}{}
		}

		poolConf := p.GroupPool[groupID]
		if poolConf == nil {
			poolConf = p.Pool
		}

		//对redis实例进行排序,保证key到实例的映射稳定
		sorted := append([]string(nil), groupServers...)
		sort.Strings(sorted)
		redisServers := make([]*RedisServer, 0, len(sorted))
		for _, serverID := range sorted {
			server := servers[serverID]
			if server == nil {
				return fmt.Errorf("can't find server id %s", serverID)
			}
			groupServer := *server
			if err := groupServer.initPool(poolConf); err != nil {
				return err
			}
			redisServers = append(redisServers, &groupServer)
		}
		groups[groupID] = redisServers
	}
	p.groups = groups
	return nil
}

// RedisConfig implements RedisConfigurer
func (p *RedisConf) RedisConfig() *RedisConf {
	return p
}
