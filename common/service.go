package common

import (
	"fmt"
	"sort"
	"sync"
)

// ServiceState 表示服务的状态: NEW -> INITED -> RUNNING -> STOPPED,任一步失败进入FAILED
type ServiceState uint32

const (
	// NEW 新建
	NEW ServiceState = iota
	// INITED 初始化完毕
	INITED
	// RUNNING 正在运行
	RUNNING
	// STOPPED 已经停止
	STOPPED
	// FAILED 失败
	FAILED
)

func (p ServiceState) String() string {
	switch p {
	case NEW:
		return "NEW"
	case INITED:
		return "INITED"
	case RUNNING:
		return "RUNNING"
	case STOPPED:
		return "STOPPED"
	case FAILED:
		return "FAILED"
	}
	return fmt.Sprintf("ServiceState(%d)", uint32(p))
}

// canTransit 检查状态转移是否有效,STOPPED和FAILED是终态
func canTransit(from, to ServiceState) bool {
	if to == FAILED {
		return from != STOPPED && from != FAILED
	}
	return from < STOPPED && to == from+1
}

// Initable 表示需要进行初始化
type Initable interface {
	// Init 执行初始化操作,如果初始化失败,返回错误的原因
	Init() error
}

// Service 统一的服务接口
type Service interface {
	Initable
	// Name 取得服务名称
	Name() string
	// Start 启动服务
	Start() bool
	// GetStartOrder 启动的次序
	GetStartOrder() int
	// Stop 停止服务
	Stop() bool
	// GetStopOrder 停止的次序
	GetStopOrder() int
	// State 服务的状态
	State() ServiceState
	setState(newState ServiceState) bool
}

// ServiceInit 初始化服务,已经初始化的服务被跳过
func ServiceInit(service Service) bool {
	if service.State() == INITED {
		return true
	}
	if err := service.Init(); err != nil {
		Errorf("init %s fail,err:%v", ServiceName(service), err)
		service.setState(FAILED)
		return false
	}
	return service.setState(INITED)
}

// ServiceStart 启动服务
func ServiceStart(service Service) bool {
	if !service.Start() {
		Errorf("start %s fail", ServiceName(service))
		service.setState(FAILED)
		return false
	}
	return service.setState(RUNNING)
}

// ServiceStop 停止服务
func ServiceStop(service Service) bool {
	if !service.Stop() {
		Errorf("stop %s fail", ServiceName(service))
		service.setState(FAILED)
		return false
	}
	return service.setState(STOPPED)
}

// BaseService 提供基本的Service接口实现
type BaseService struct {
	SName     string //服务的名称
	Order     int
	state     ServiceState //服务的状态
	stateLock sync.RWMutex
}

// Name 服务名称
func (p *BaseService) Name() string {
	return p.SName
}

// Init 初始化
func (p *BaseService) Init() error {
	return nil
}

// Start 启动服务
func (p *BaseService) Start() bool {
	return true
}

// GetStartOrder 启动顺序
func (p *BaseService) GetStartOrder() int {
	return p.Order
}

// Stop 停止服务
func (p *BaseService) Stop() bool {
	return true
}

// GetStopOrder 停止顺序,与启动顺序相反
func (p *BaseService) GetStopOrder() int {
	return -p.GetStartOrder()
}

// State 取得服务的状态
func (p *BaseService) State() ServiceState {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.state
}

func (p *BaseService) setState(newState ServiceState) bool {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if canTransit(p.state, newState) {
		p.state = newState
		return true
	}
	Errorf("Invalid state transfer %s->%s,%s", p.state, newState, p.Name())
	return false
}

// ServiceName 取得服务的名称
func ServiceName(service Service) string {
	name := fmt.Sprintf("%T", service)
	if service.Name() != "" {
		name += "#" + service.Name()
	}
	return name
}

// Services 一组Service的集合,按GetStartOrder升序初始化和启动,按GetStopOrder升序停止
type Services struct {
	services []Service
}

// NewServices 构建新的Service集合
func NewServices(services ...Service) *Services {
	return &Services{services: append([]Service(nil), services...)}
}

func (p *Services) sorted(start bool) []Service {
	sorted := append([]Service(nil), p.services...)
	order := func(s Service) int {
		if start {
			return s.GetStartOrder()
		}
		return s.GetStopOrder()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return order(sorted[i]) < order(sorted[j])
	})
	return sorted
}

// Init 初始化所有服务,遇到失败立即返回
func (p *Services) Init() bool {
	for _, service := range p.sorted(true) {
		if !ServiceInit(service) {
			return false
		}
	}
	return true
}

// Start 启动所有服务,遇到失败立即返回,已经启动的服务需要调用Stop停止
func (p *Services) Start() bool {
	for _, service := range p.sorted(true) {
		if !ServiceStart(service) {
			return false
		}
	}
	return true
}

// Stop 停止所有正在运行的服务
func (p *Services) Stop() bool {
	ok := true
	for _, service := range p.sorted(false) {
		if service.State() == RUNNING && !ServiceStop(service) {
			ok = false
		}
	}
	return ok
}
