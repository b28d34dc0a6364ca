// Package visit serves the visit counter page
package visit

import (
	"net/http"

	c "github.com/d0ngw/visitcounter/common"
	"github.com/d0ngw/visitcounter/counter"
	vhttp "github.com/d0ngw/visitcounter/http"
)

// Path the only path served by Handler
const Path = "/"

// Handler increments the visit counter once per request and renders the new value.
// It holds no state between requests and is safe for concurrent use.
type Handler struct {
	counter counter.Counter
	conf    *Config
	metrics *Metrics
}

// NewHandler create Handler, metrics is optional
func NewHandler(counter counter.Counter, conf *Config, metrics *Metrics) *Handler {
	if conf == nil {
		conf = NewDefaultConfig()
	}
	return &Handler{
		counter: counter,
		conf:    conf,
		metrics: metrics,
	}
}

func (p *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != Path {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		vhttp.RenderText(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	visits, err := p.counter.Incr(r.Context(), p.conf.CounterName)
	if err != nil {
		c.Errorf("Error accessing counter %s via %s: %v", p.conf.CounterName, p.counter.GetName(), err)
		p.metrics.observe(outcomeFailure)
		vhttp.RenderText(w, p.conf.ErrorStatus, ErrorMessage)
		return
	}
	p.metrics.observe(outcomeSuccess)
	vhttp.RenderHTML(w, http.StatusOK, RenderPage(visits))
}
