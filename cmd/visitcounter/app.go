package main

import (
	"context"
	"fmt"
	"time"

	"github.com/d0ngw/visitcounter/cache"
	c "github.com/d0ngw/visitcounter/common"
	"github.com/d0ngw/visitcounter/counter"
	vhttp "github.com/d0ngw/visitcounter/http"
	"github.com/d0ngw/visitcounter/visit"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "visitcounter"

// storeService 管理Redis连接池的生命周期:启动时检查连通性,停止时关闭连接池
type storeService struct {
	c.BaseService
	client  *cache.RedisClient
	counter *counter.RedisCounter
	group   string
}

// Init implements Service.Init
func (p *storeService) Init() error {
	return p.counter.Init()
}

// Start 检查Redis是否可用,不可用时只记录警告,请求会在Redis恢复后成功
func (p *storeService) Start() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.client.Ping(ctx, p.group); err != nil {
		c.Warnf("redis group %s is not reachable yet: %v", p.group, err)
	}
	return true
}

// Stop 关闭连接池
func (p *storeService) Stop() bool {
	if err := p.client.Close(); err != nil {
		c.Errorf("close redis client fail: %v", err)
	}
	return true
}

// app 组装后的应用
type app struct {
	conf     *appConfig
	registry *prometheus.Registry
	store    *storeService
	http     *vhttp.Service
	services *c.Services
}

// newApp 使用已经解析的配置创建应用
func newApp(conf *appConfig) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())

	client := cache.NewRedisClientWithConf(conf.RedisConfig())
	visitCounter := counter.NewRedisCounter("redis", client, conf.Visit.CacheParam())
	store := &storeService{
		BaseService: c.BaseService{SName: "store", Order: 0},
		client:      client,
		counter:     visitCounter,
		group:       conf.Visit.Group,
	}

	requestMetrics, err := vhttp.NewRequestMetrics(metricsNamespace, registry)
	if err != nil {
		return nil, err
	}
	visitMetrics, err := visit.NewMetrics(metricsNamespace, registry)
	if err != nil {
		return nil, err
	}
	group := conf.Visit.Group
	err = registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "redis_active_connections",
		Help:        "Number of connections held by the redis pools of the counter group",
		ConstLabels: prometheus.Labels{"group": group},
	}, func() float64 {
		return float64(client.ActiveCount(group))
	}))
	if err != nil {
		return nil, err
	}

	httpConf := conf.HTTP
	for _, m := range []vhttp.Middleware{vhttp.Recover, vhttp.AccessLog} {
		if err := httpConf.RegMiddleware(m); err != nil {
			return nil, err
		}
	}
	visitHandler := visit.NewHandler(visitCounter, conf.Visit, visitMetrics)
	err = httpConf.RegHandleFunc(visit.Path, vhttp.Metrics(requestMetrics, visit.Path).Handle(visitHandler.ServeHTTP))
	if err != nil {
		return nil, err
	}
	healthHandler := visit.NewHealthHandler(client, conf.Visit.Group)
	err = httpConf.RegHandleFunc(visit.HealthPath, vhttp.Metrics(requestMetrics, visit.HealthPath).Handle(healthHandler.ServeHTTP))
	if err != nil {
		return nil, err
	}
	if err := httpConf.RegHandler("/metrics", requestMetrics.Handler()); err != nil {
		return nil, err
	}

	httpService := vhttp.NewService("http", httpConf)
	httpService.Order = 1

	return &app{
		conf:     conf,
		registry: registry,
		store:    store,
		http:     httpService,
		services: c.NewServices(store, httpService),
	}, nil
}

// start 初始化并启动所有服务
func (p *app) start() error {
	if !p.services.Init() {
		return fmt.Errorf("init services fail")
	}
	if !p.services.Start() {
		p.services.Stop()
		return fmt.Errorf("start services fail")
	}
	return nil
}

// stop 停止所有服务
func (p *app) stop() {
	p.services.Stop()
	c.SyncLog()
}
