package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	c "github.com/d0ngw/visitcounter/common"
	"golang.org/x/net/netutil"
)

type tcpKeepAliveListener struct {
	*net.TCPListener
}

// Accept 接受连接并开启keep alive
func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err = tc.SetKeepAlive(true); err != nil {
		tc.Close()
		return nil, err
	}
	if err = tc.SetKeepAlivePeriod(3 * time.Minute); err != nil {
		tc.Close()
		return nil, err
	}
	return tc, nil
}

// Service Http服务
type Service struct {
	c.BaseService
	Conf            *Config
	ShutdownTimeout time.Duration //停止时等待正在处理的请求的时间,默认30秒
	listener        net.Listener
	server          *http.Server
	served          chan struct{}
	lock            sync.Mutex
}

// NewService 创建Http服务
func NewService(name string, conf *Config) *Service {
	return &Service{
		BaseService: c.BaseService{SName: name},
		Conf:        conf,
	}
}

// Init 初始化Http服务,绑定所有注册的处理器
func (p *Service) Init() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.Conf == nil {
		return fmt.Errorf("no http conf")
	}
	if p.Conf.Addr == "" {
		p.Conf.Addr = DefaultAddr
	}

	handles, middlewares := p.Conf.snapshot()
	if len(handles) == 0 {
		return fmt.Errorf("no handler registered")
	}

	serveMux := http.NewServeMux()
	for pattern, handler := range handles {
		serveMux.Handle(pattern, chain(handler, middlewares))
	}

	p.server = &http.Server{
		Addr:         p.Conf.Addr,
		ReadTimeout:  time.Duration(p.Conf.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(p.Conf.WriteTimeout) * time.Second,
		Handler:      serveMux}
	return nil
}

// Start 启动Http服务,开始端口监听和服务处理
func (p *Service) Start() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil {
		c.Errorf("http service %s not inited", p.Name())
		return false
	}

	ln, err := net.Listen("tcp", p.Conf.Addr)
	if err != nil {
		c.Errorf("Listen at %s fail,error:%v", p.Conf.Addr, err)
		return false
	}

	var listener net.Listener = tcpKeepAliveListener{ln.(*net.TCPListener)}
	if p.Conf.MaxConns > 0 {
		listener = netutil.LimitListener(listener, p.Conf.MaxConns)
	}
	p.listener = listener

	server := p.server
	served := make(chan struct{})
	p.served = served
	go func() {
		defer close(served)
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			c.Errorf("server.Serve return with %v", err)
		}
	}()
	c.Infof("Server is running on %s", listener.Addr())
	return true
}

// Addr 实际监听的地址,未启动时返回nil
func (p *Service) Addr() net.Addr {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop 停止Http服务,关闭端口监听并等待正在处理的请求完成
func (p *Service) Stop() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.server == nil {
		return true
	}
	timeout := p.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ok := true
	c.Infof("Waiting shutdown")
	if err := p.server.Shutdown(ctx); err != nil {
		c.Errorf("shutdown %s fail,err:%v", p.Name(), err)
		p.server.Close()
		ok = false
	}
	if p.served != nil {
		<-p.served
	}
	c.Infof("Finish shutdown")

	p.listener = nil
	p.server = nil
	p.served = nil
	return ok
}
