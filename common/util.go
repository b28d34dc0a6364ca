package common

import (
	"hash/fnv"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync"
	"syscall"
)

// IsEmpty 是否有空字符串,只包含空白字符也认为是空
func IsEmpty(strs ...string) bool {
	for _, s := range strs {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// IsValNil 判断val是否为nil,包括指针、map、slice、func、chan和interface的nil值
func IsValNil(val interface{}) bool {
	if val == nil {
		return true
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// HasNil vals中是否有nil值
func HasNil(vals ...interface{}) bool {
	for _, v := range vals {
		if IsValNil(v) {
			return true
		}
	}
	return false
}

// Fnv32Hashcode 计算s的fnv32a hash
func Fnv32Hashcode(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}

// Shutdownhook 进程退出时的钩子
type Shutdownhook struct {
	ch         chan os.Signal //接收信号的channel
	hooks      []func()       //停机时需要调用的方法列表
	sync.Mutex                //同步锁
}

// NewShutdownhook 创建一个Shutdownhook,sig是要监听的信号,默认会监听syscall.SIGINT,syscall.SIGTERM
func NewShutdownhook(sig ...os.Signal) *Shutdownhook {
	if len(sig) == 0 {
		sig = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, len(sig))
	signal.Notify(ch, sig...)
	return &Shutdownhook{ch: ch}
}

// AddHook 增加一个Hook函数,按照添加的顺序执行
func (p *Shutdownhook) AddHook(hookFunc func()) {
	p.Lock()
	defer p.Unlock()
	p.hooks = append(p.hooks, hookFunc)
}

// WaitShutdown 等待进程退出的信号,当收到进程退出的信号后,依次执行注册的hook函数
func (p *Shutdownhook) WaitShutdown() {
	s, ok := <-p.ch
	signal.Stop(p.ch)

	p.Lock()
	defer p.Unlock()
	if ok {
		Infof("Receive signal:%v,Run hooks", s)
	} else {
		Warnf("Signal channel closed,Run hooks")
	}
	for _, f := range p.hooks {
		f()
	}
	Infof("Finished run hooks")
}
