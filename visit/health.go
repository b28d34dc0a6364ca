package visit

import (
	"context"
	"net/http"

	c "github.com/d0ngw/visitcounter/common"
	vhttp "github.com/d0ngw/visitcounter/http"
)

// HealthPath the path of HealthHandler
const HealthPath = "/healthz"

// Pinger checks the store of a redis group, implemented by cache.RedisClient
type Pinger interface {
	Ping(ctx context.Context, group string) error
}

// HealthHandler reports whether the store of the counter is reachable
type HealthHandler struct {
	pinger Pinger
	group  string
}

// NewHealthHandler create HealthHandler
func NewHealthHandler(pinger Pinger, group string) *HealthHandler {
	return &HealthHandler{pinger: pinger, group: group}
}

func (p *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := p.pinger.Ping(r.Context(), p.group); err != nil {
		c.Warnf("health check of group %s fail: %v", p.group, err)
		vhttp.RenderJSON(w, http.StatusServiceUnavailable, &vhttp.Resp{Success: false, Msg: "store unavailable"})
		return
	}
	vhttp.RenderJSON(w, http.StatusOK, &vhttp.Resp{Success: true, Data: map[string]string{"store": "ok"}})
}
