package common

import (
	"errors"
	"os"
	"reflect"
	"runtime"
)

var errInvalidConf = errors.New("invalid conf")

// ConfigLoader 配置内容加载器
type ConfigLoader interface {
	Load(configPath string) (content []byte, err error)
}

// ConfigLoaderFunc 函数形式的ConfigLoader
type ConfigLoaderFunc func(configPath string) ([]byte, error)

// Load implements ConfigLoader
func (f ConfigLoaderFunc) Load(configPath string) ([]byte, error) {
	return f(configPath)
}

// FileLoader 从本地文件中加载配置
var FileLoader ConfigLoader = ConfigLoaderFunc(os.ReadFile)

// Configurer 配置器
type Configurer interface {
	//解析配置
	Parse() error
}

// LogConfig 日志配置,FileName为空时输出到stderr
type LogConfig struct {
	Env        string `yaml:"env"`         //development或production
	FileName   string `yaml:"file_name"`   //日志文件,按照MaxSize滚动
	MaxSize    int    `yaml:"max_size"`    //单个日志文件的大小,单位MB
	MaxBackups int    `yaml:"max_backups"` //保留的日志文件个数
	MaxAge     int    `yaml:"max_age"`     //保留的天数
	NoCaller   bool   `yaml:"no_caller"`
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"` //console或json,默认console
}

// Parse 检查并使用配置初始化日志
func (p *LogConfig) Parse() error {
	if p.Level != "" {
		if _, ok := LogLevel(p.Level).zapLevel(); !ok {
			return errors.New("invalid log level " + p.Level)
		}
	}
	return initLogger(p)
}

// RuntimeConfig 运行期配置
type RuntimeConfig struct {
	Maxprocs int `yaml:"maxprocs"` //最大的PROCS个数
}

// Parse 设置GOMAXPROCS
func (p *RuntimeConfig) Parse() error {
	if p.Maxprocs > 0 {
		preProcs := runtime.GOMAXPROCS(p.Maxprocs)
		Infof("Set runtime.MAXPROCS to %v,old is %v", p.Maxprocs, preProcs)
	}
	return nil
}

// AppConfig 基础的应用配置
type AppConfig struct {
	*LogConfig     `yaml:"log"`
	*RuntimeConfig `yaml:"runtime"`
}

// Parse 解析基础的应用配置
func (p *AppConfig) Parse() error {
	return Parse(p)
}

// Parse 依次解析conf中实现了Configurer的导出字段,nil字段被跳过
func Parse(conf interface{}) error {
	config := reflect.Indirect(reflect.ValueOf(conf))
	if config.Kind() != reflect.Struct {
		return errInvalidConf
	}
	for i := 0; i < config.NumField(); i++ {
		if !config.Type().Field(i).IsExported() {
			continue
		}
		field := reflect.Indirect(config.Field(i))
		if !field.IsValid() || !field.CanAddr() {
			continue
		}
		if configurer, ok := field.Addr().Interface().(Configurer); ok {
			if err := configurer.Parse(); err != nil {
				return err
			}
		}
	}
	return nil
}
