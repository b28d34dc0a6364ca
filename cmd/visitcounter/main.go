// Command visitcounter serves a page showing how many times it has been visited.
// The count is kept in redis.
package main

import (
	"errors"
	"fmt"
	"os"

	c "github.com/d0ngw/visitcounter/common"
	"github.com/jessevdk/go-flags"
)

// options 命令行参数
type options struct {
	ConfDir   string   `long:"conf-dir" description:"Directory of the config files" default:"."`
	Confs     []string `long:"conf" description:"YAML config file relative to conf-dir, can be repeated"`
	Addr      string   `long:"addr" description:"HTTP listen address, overrides http.addr"`
	RedisHost string   `long:"redis-host" description:"Redis host, overrides redis.servers"`
	RedisPort int      `long:"redis-port" description:"Redis port, overrides redis.servers"`
	RedisAuth string   `long:"redis-auth" description:"Redis password" env:"VISITCOUNTER_REDIS_AUTH"`
}

func main() {
	err := run(os.Args[1:])

	flagErr, isFlagErr := errors.Unwrap(err).(*flags.Error)
	isHelpErr := isFlagErr && flagErr.Type == flags.ErrHelp

	if err == nil || isHelpErr {
		os.Exit(0)
	}

	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	if _, err := flags.ParseArgs(opts, args); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	conf, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := newApp(conf)
	if err != nil {
		return err
	}

	shutdownhook := c.NewShutdownhook()
	if err := a.start(); err != nil {
		return err
	}
	shutdownhook.AddHook(a.stop)
	shutdownhook.WaitShutdown()
	return nil
}
