package visit

import (
	"fmt"
	"net/http"

	"github.com/d0ngw/visitcounter/cache"
)

// Defaults of Config
const (
	DefaultCounterName = "visits"
	DefaultErrorStatus = http.StatusOK
)

// Config of the visit page
type Config struct {
	CounterName string `yaml:"counter_name"` // the counter incremented by every visit
	KeyPrefix   string `yaml:"key_prefix"`   // prefix of the redis key
	Group       string `yaml:"group"`        // redis group of the counter
	ErrorStatus int    `yaml:"error_status"` // status of the error response, 200 or 5xx
}

// NewDefaultConfig returns the config that counts into the redis key `visits`
func NewDefaultConfig() *Config {
	conf := &Config{}
	_ = conf.Parse()
	return conf
}

// Parse implements common.Configurer
func (p *Config) Parse() error {
	if p.CounterName == "" {
		p.CounterName = DefaultCounterName
	}
	if p.Group == "" {
		p.Group = cache.DefaultGroup
	}
	if p.ErrorStatus == 0 {
		p.ErrorStatus = DefaultErrorStatus
	}
	if p.ErrorStatus != http.StatusOK && (p.ErrorStatus < 500 || p.ErrorStatus > 599) {
		return fmt.Errorf("invalid visit error_status %d, must be 200 or 5xx", p.ErrorStatus)
	}
	return nil
}

// CacheParam the redis param of the counter keys
func (p *Config) CacheParam() *cache.ParamConf {
	return cache.NewParamConf(p.Group, p.KeyPrefix, 0)
}
