package http

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	c "github.com/d0ngw/visitcounter/common"
)

// Middleware 定义中间件接口
type Middleware interface {
	// Handle 包装next,返回新的处理函数
	Handle(next http.HandlerFunc) http.HandlerFunc
}

// MiddlewareFunc 函数形式的Middleware
type MiddlewareFunc func(next http.HandlerFunc) http.HandlerFunc

// Handle implements Middleware
func (f MiddlewareFunc) Handle(next http.HandlerFunc) http.HandlerFunc {
	return f(next)
}

// chain 依次用middlewares包装handler,第一个middleware在最外层
func chain(handler http.Handler, middlewares []Middleware) http.HandlerFunc {
	h := handler.ServeHTTP
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i].Handle(h)
	}
	return h
}

// statusWriter 记录响应的状态码
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// AccessLog 记录访问日志
var AccessLog = MiddlewareFunc(func(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next(sw, r)
		c.Infof("%s %s %s %d %d %s", r.RemoteAddr, r.Method, r.RequestURI, sw.code(), sw.size, time.Since(start))
	}
})

// Recover 捕获处理过程中的panic,返回500
var Recover = MiddlewareFunc(func(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				c.Errorf("handle %s panic:%v\n%s", r.RequestURI, err, debug.Stack())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
})

// Metrics 使用Prometheus记录请求数和耗时,path使用注册时的pattern,避免高基数
func Metrics(metrics *RequestMetrics, pattern string) Middleware {
	return MiddlewareFunc(func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next(sw, r)
			metrics.requests.WithLabelValues(pattern, strconv.Itoa(sw.code())).Inc()
			metrics.duration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		}
	})
}
