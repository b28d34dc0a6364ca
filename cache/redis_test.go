package cache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *RedisClient) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	conf := NewSingleRedisConf(mr.Host(), port)
	require.NoError(t, conf.Parse())
	client := NewRedisClientWithConf(conf)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisConfParse(t *testing.T) {
	conf := &RedisConf{
		Servers: []*RedisServer{
			{ID: "s1", Host: "127.0.0.1", Port: 6379},
			{ID: "s2", Host: "127.0.0.1", Port: 6380},
		},
		Groups: map[string][]string{"test": {"s2", "s1"}},
		Pool:   &RedisPoolConf{MaxActive: 10, MaxIdle: 1, CallTimeout: 100},
	}
	require.NoError(t, conf.Parse())
	servers := conf.groups["test"]
	require.Len(t, servers, 2)
	assert.Equal(t, "s1", servers[0].ID)
	assert.Equal(t, "s2", servers[1].ID)
	assert.Equal(t, 100*time.Millisecond, servers[0].callTimeout)
	assert.NotNil(t, servers[1].pool)
	assert.Nil(t, conf.Servers[0].pool)
	assert.Error(t, conf.Parse())
}

func TestRedisConfParseInvalid(t *testing.T) {
	cases := []*RedisConf{
		{Servers: []*RedisServer{{ID: "", Host: "127.0.0.1", Port: 6379}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 0}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 1}, {ID: "a", Host: "127.0.0.2", Port: 1}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 1}, {ID: "b", Host: "127.0.0.1", Port: 1}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 1}}, Groups: map[string][]string{"g": {"b"}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 1}}, Groups: map[string][]string{"g": {}}},
		{Servers: []*RedisServer{{ID: "a", Host: "127.0.0.1", Port: 1}}, Groups: map[string][]string{"g": {"a", "a"}}},
	}
	for i, conf := range cases {
		assert.Error(t, conf.Parse(), "case %d", i)
	}

	var nilConf *RedisConf
	assert.NoError(t, nilConf.Parse())
}

func TestRedisIncr(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	param := NewParamConf(DefaultGroup, "test_", 0).NewParamKey("visits")

	_, ok, err := client.GetInt64(ctx, param)
	assert.NoError(t, err)
	assert.False(t, ok)

	for i := 1; i <= 3; i++ {
		v, err := client.Incr(ctx, param)
		require.NoError(t, err)
		assert.EqualValues(t, i, v)
	}
	v, err := client.IncrBy(ctx, param, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 13, v)

	v, ok, err = client.GetInt64(ctx, param)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 13, v)
	assert.Equal(t, "13", mustGet(t, mr, "test_visits"))
	assert.Equal(t, 1, client.ActiveCount(DefaultGroup))
	assert.Equal(t, 0, client.ActiveCount("nogroup"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRedisIncrExpire(t *testing.T) {
	mr, client := newTestClient(t)
	param := NewParamConf(DefaultGroup, "ex_", 20).NewParamKey("visits")
	_, err := client.Incr(context.Background(), param)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, mr.TTL("ex_visits"))
}

func TestRedisIncrConcurrent(t *testing.T) {
	mr, client := newTestClient(t)
	param := NewParamConf(DefaultGroup, "", 0).NewParamKey("concurrent")

	const n = 200
	var wg sync.WaitGroup
	seen := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := client.Incr(context.Background(), param)
			assert.NoError(t, err)
			seen[i] = v
		}(i)
	}
	wg.Wait()
	assert.Equal(t, strconv.Itoa(n), mustGet(t, mr, "concurrent"))

	unique := map[int64]struct{}{}
	for _, v := range seen {
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, n)
}

func TestRedisErrors(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Incr(ctx, NewParamConf("nogroup", "", 0).NewParamKey("k"))
	assert.True(t, errors.Is(err, ErrNoGroup))

	param := NewParamConf(DefaultGroup, "", 0).NewParamKey("str")
	require.NoError(t, mr.Set("str", "abc"))
	_, err = client.Incr(ctx, param)
	var redisErr redis.Error
	assert.True(t, errors.As(err, &redisErr))

	_, _, err = client.GetInt64(ctx, param)
	assert.True(t, errors.Is(err, ErrReplyType))

	assert.NoError(t, client.Ping(ctx, DefaultGroup))
	mr.Close()
	assert.Error(t, client.Ping(ctx, DefaultGroup))
	_, err = client.Incr(ctx, param)
	assert.Error(t, err)
}

func TestRedisCallTimeout(t *testing.T) {
	conf := &RedisConf{
		Servers: []*RedisServer{{ID: "blackhole", Host: "10.255.255.1", Port: 6379}},
		Pool:    &RedisPoolConf{ConnectTimeout: 5000, CallTimeout: 50, MaxActive: 1},
	}
	require.NoError(t, conf.Parse())
	client := NewRedisClientWithConf(conf)
	defer client.Close()

	start := time.Now()
	_, err := client.Incr(context.Background(), NewParamConf(DefaultGroup, "", 0).NewParamKey("k"))
	assert.Error(t, err)
	assert.Less(t, int64(time.Since(start)), int64(2*time.Second))
}

func TestRedisPoolConfDefaults(t *testing.T) {
	conf := &RedisConf{
		Servers:   []*RedisServer{{ID: "s1", Host: "127.0.0.1", Port: 6379}, {ID: "s2", Host: "127.0.0.1", Port: 6380}},
		Groups:    map[string][]string{"g1": {"s1"}, "g2": {"s2"}},
		Pool:      &RedisPoolConf{MaxActive: 10},
		GroupPool: map[string]*RedisPoolConf{"g2": {CallTimeout: -1, MaxIdle: 5}},
	}
	require.NoError(t, conf.Parse())

	s1 := conf.groups["g1"][0]
	assert.Equal(t, time.Duration(DefaultCallTimeout)*time.Millisecond, s1.callTimeout)
	assert.Equal(t, DefaultConnectTimout, s1.poolConf.ConnectTimeout)
	assert.Equal(t, DefaultReadTimeout, s1.poolConf.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, s1.poolConf.WriteTimeout)
	assert.Equal(t, 10, s1.poolConf.MaxActive)
	assert.Equal(t, DefaultMaxIdle, s1.poolConf.MaxIdle)
	assert.Equal(t, 10, s1.pool.MaxActive)

	s2 := conf.groups["g2"][0]
	assert.Equal(t, time.Duration(0), s2.callTimeout)
	assert.Equal(t, 5, s2.poolConf.MaxIdle)
	assert.Equal(t, DefaultMaxActive, s2.poolConf.MaxActive)

	// 配置本身不被修改
	assert.Equal(t, 0, conf.Pool.CallTimeout)
}

func TestRedisPartialPoolConfHungServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		var conns []net.Conn
		defer func() {
			for _, conn := range conns {
				conn.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conf := NewSingleRedisConf("127.0.0.1", addr.Port)
	conf.Pool = &RedisPoolConf{MaxActive: 10, MaxIdle: 2}
	require.NoError(t, conf.Parse())
	client := NewRedisClientWithConf(conf)
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		_, err := client.Incr(context.Background(), NewParamConf(DefaultGroup, "", 0).NewParamKey("k"))
		done <- err
	}()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Duration(DefaultCallTimeout)*time.Millisecond + 2*time.Second):
		t.Fatal("incr is not bounded by the default call timeout")
	}
}
