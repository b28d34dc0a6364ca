package main

import (
	"github.com/d0ngw/visitcounter/cache"
	c "github.com/d0ngw/visitcounter/common"
	vhttp "github.com/d0ngw/visitcounter/http"
	"github.com/d0ngw/visitcounter/visit"
)

// 默认的Redis地址
const (
	defaultRedisHost = "127.0.0.1"
	defaultRedisPort = 6379
)

// appConfig 应用配置
type appConfig struct {
	c.AppConfig `yaml:",inline"`
	HTTP        *vhttp.Config    `yaml:"http"`
	Redis       *cache.RedisConf `yaml:"redis"`
	Visit       *visit.Config    `yaml:"visit"`
}

// RedisConfig implements cache.RedisConfigurer
func (p *appConfig) RedisConfig() *cache.RedisConf {
	return p.Redis
}

// fillDefaults 填充没有配置的部分
func (p *appConfig) fillDefaults() {
	if p.HTTP == nil {
		p.HTTP = vhttp.NewConfig(vhttp.DefaultAddr)
	}
	if p.Redis == nil || len(p.Redis.Servers) == 0 {
		p.Redis = cache.NewSingleRedisConf(defaultRedisHost, defaultRedisPort)
	}
	if p.Visit == nil {
		p.Visit = visit.NewDefaultConfig()
	}
}

// override 使用命令行参数覆盖配置
func (p *appConfig) override(opts *options) {
	if opts.Addr != "" {
		p.HTTP.Addr = opts.Addr
	}
	if opts.RedisHost == "" && opts.RedisPort == 0 && opts.RedisAuth == "" {
		return
	}
	host, port, auth := defaultRedisHost, defaultRedisPort, ""
	if len(p.Redis.Servers) > 0 {
		host, port, auth = p.Redis.Servers[0].Host, p.Redis.Servers[0].Port, p.Redis.Servers[0].Auth
	}
	if opts.RedisHost != "" {
		host = opts.RedisHost
	}
	if opts.RedisPort > 0 {
		port = opts.RedisPort
	}
	redisConf := cache.NewSingleRedisConf(host, port)
	redisConf.Pool = p.Redis.Pool
	redisConf.Servers[0].Auth = auth
	if opts.RedisAuth != "" {
		redisConf.Servers[0].Auth = opts.RedisAuth
	}
	p.Redis = redisConf
	// 只有一个实例,计数器只能放在默认组
	p.Visit.Group = cache.DefaultGroup
}

// Parse implements common.Configurer
func (p *appConfig) Parse() error {
	p.fillDefaults()
	return c.Parse(p)
}

// loadConfig 加载配置文件,没有配置文件时使用默认配置
func loadConfig(opts *options) (*appConfig, error) {
	conf := &appConfig{}
	if len(opts.Confs) > 0 {
		if err := c.LoadConfig(conf, "", opts.ConfDir, opts.Confs...); err != nil {
			return nil, err
		}
	}
	conf.fillDefaults()
	conf.override(opts)
	if err := conf.Parse(); err != nil {
		return nil, err
	}
	return conf, nil
}
