package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	c "github.com/d0ngw/visitcounter/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewRequestMetrics("test", registry)
	require.NoError(t, err)

	httpConfig := NewConfig("127.0.0.1:0")
	require.NoError(t, httpConfig.Parse())
	require.NoError(t, httpConfig.RegMiddleware(Recover))
	require.NoError(t, httpConfig.RegMiddleware(AccessLog))

	var order []string
	var orderLock sync.Mutex
	record := func(name string) Middleware {
		return MiddlewareFunc(func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				orderLock.Lock()
				order = append(order, name)
				orderLock.Unlock()
				next(w, r)
			}
		})
	}
	require.NoError(t, httpConfig.RegMiddleware(record("outer")))
	require.NoError(t, httpConfig.RegMiddleware(record("inner")))

	require.NoError(t, httpConfig.RegHandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {
		RenderText(w, http.StatusOK, fmt.Sprintf("method:%s, id:%s", r.Method, r.FormValue("id")))
	}))
	require.NoError(t, httpConfig.RegHandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	require.NoError(t, httpConfig.RegHandler("/metrics", metrics.Handler()))
	assert.Error(t, httpConfig.RegHandleFunc("/hello", func(w http.ResponseWriter, r *http.Request) {}))
	assert.Error(t, httpConfig.RegHandler("/nil", nil))
	assert.Error(t, httpConfig.RegMiddleware(nil))

	httpSvc := NewService("test", httpConfig)
	require.NoError(t, httpSvc.Init())
	assert.Nil(t, httpSvc.Addr())
	require.True(t, httpSvc.Start())
	defer httpSvc.Stop()

	base := "http://" + httpSvc.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	status, contentType, body, err := GetURL(client, base+"/hello", map[string][]string{"id": {"id1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(contentType, "text/plain"))
	assert.Equal(t, "method:GET, id:id1", body)
	assert.Equal(t, []string{"outer", "inner"}, order)

	status, _, _, err = GetURL(client, base+"/panic", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _, _, err = GetURL(client, base+"/hello", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, _, _, err = GetURL(client, base+"/notfound", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewRequestMetrics("test", registry)
	require.NoError(t, err)
	again, err := NewRequestMetrics("test", registry)
	require.NoError(t, err)
	assert.Equal(t, metrics.requests, again.requests)

	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RenderText(w, http.StatusTeapot, "tea")
	}), []Middleware{Metrics(metrics, "/tea")})

	conf := NewConfig("127.0.0.1:0")
	require.NoError(t, conf.RegHandler("/tea", h))
	svc := NewService("metrics", conf)
	require.NoError(t, svc.Init())
	require.True(t, svc.Start())
	defer svc.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	for i := 0; i < 3; i++ {
		status, _, _, err := GetURL(client, "http://"+svc.Addr().String()+"/tea", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusTeapot, status)
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.requests.WithLabelValues("/tea", "418")))
}

func TestServiceInitFail(t *testing.T) {
	svc := NewService("empty", NewConfig(""))
	assert.Error(t, svc.Init())
	assert.Equal(t, DefaultAddr, svc.Conf.Addr)
	assert.False(t, svc.Start())

	svc = &Service{}
	assert.Error(t, svc.Init())
}

// recordLogger 记录Infof的日志
type recordLogger struct {
	c.Logger
	lock  sync.Mutex
	infos []string
}

func (p *recordLogger) Infof(format string, params ...interface{}) {
	p.lock.Lock()
	p.infos = append(p.infos, fmt.Sprintf(format, params...))
	p.lock.Unlock()
	p.Logger.Infof(format, params...)
}

func (p *recordLogger) has(msg string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, info := range p.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func TestServiceRunningLog(t *testing.T) {
	prev := c.SetLogger(nil)
	logger := &recordLogger{Logger: prev}
	c.SetLogger(logger)
	defer c.SetLogger(prev)

	conf := NewConfig("127.0.0.1:0")
	require.NoError(t, conf.RegHandleFunc("/", func(w http.ResponseWriter, r *http.Request) {}))
	svc := NewService("log", conf)
	require.NoError(t, svc.Init())
	require.True(t, svc.Start())
	defer svc.Stop()

	assert.True(t, logger.has("Server is running on "+svc.Addr().String()))
}
