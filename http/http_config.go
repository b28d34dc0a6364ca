// Package http 提供基本的http服务
package http

import (
	"fmt"
	"net/http"
	"sync"

	c "github.com/d0ngw/visitcounter/common"
)

// DefaultAddr 默认的监听地址
const DefaultAddr = ":3000"

// Config Http配置
type Config struct {
	Addr         string `yaml:"addr"`          //Http监听地址
	ReadTimeout  int    `yaml:"read_timeout"`  //读超时,单位秒,0表示不限制
	WriteTimeout int    `yaml:"write_timeout"` //写超时,单位秒,0表示不限制
	MaxConns     int    `yaml:"max_conns"`     //最大的并发连接数,0表示不限制
	middlewares  []Middleware
	handles      map[string]http.Handler
	lock         sync.RWMutex
}

// NewConfig 创建配置
func NewConfig(addr string) *Config {
	conf := &Config{Addr: addr}
	conf.ensure()
	return conf
}

func (p *Config) ensure() {
	if p.handles == nil {
		p.handles = map[string]http.Handler{}
	}
}

// Parse implements common.Configurer
func (p *Config) Parse() error {
	if p.Addr == "" {
		p.Addr = DefaultAddr
	}
	if p.ReadTimeout < 0 || p.WriteTimeout < 0 || p.MaxConns < 0 {
		return fmt.Errorf("invalid http conf,read_timeout:%d,write_timeout:%d,max_conns:%d", p.ReadTimeout, p.WriteTimeout, p.MaxConns)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.ensure()
	return nil
}

// RegHandler 注册patternPath的处理器
func (p *Config) RegHandler(patternPath string, handler http.Handler) error {
	if handler == nil {
		return fmt.Errorf("can't bind nil handler to path %s", patternPath)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.ensure()
	if _, ok := p.handles[patternPath]; ok {
		return fmt.Errorf("duplicate path:%s", patternPath)
	}
	p.handles[patternPath] = handler
	c.Infof("Register handler %T,path:%s", handler, patternPath)
	return nil
}

// RegHandleFunc 注册patternPath的处理函数handlerFunc
func (p *Config) RegHandleFunc(patternPath string, handlerFunc http.HandlerFunc) error {
	if handlerFunc == nil {
		return fmt.Errorf("can't bind nil handlerFunc to path %s", patternPath)
	}
	return p.RegHandler(patternPath, handlerFunc)
}

// RegMiddleware 注册middleware,按照注册的顺序由外到内执行
func (p *Config) RegMiddleware(middleware Middleware) error {
	if middleware == nil {
		return fmt.Errorf("invalid middleware")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.middlewares = append(p.middlewares, middleware)
	return nil
}

func (p *Config) snapshot() (handles map[string]http.Handler, middlewares []Middleware) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	handles = make(map[string]http.Handler, len(p.handles))
	for k, v := range p.handles {
		handles[k] = v
	}
	middlewares = append(middlewares, p.middlewares...)
	return
}
