package altnames

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoCheckpoint：检查点不存在，需要重新解析译名文件
var ErrNoCheckpoint = errors.New("no checkpoint")

// Checkpoint：译名解析产物的持久化
// 背景：译名文件解析耗时最长；开启后第二次运行直接加载上次的解析结果，只做提交
type Checkpoint interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
}

func encodeState(st *State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, fmt.Errorf("encode checkpoint: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeState(b []byte) (*State, error) {
	st := &State{}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(st); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return st, nil
}

// FileCheckpoint：gob 编码写入本地文件，先写临时文件再原子替换
type FileCheckpoint struct {
	Path string
}

func (f FileCheckpoint) Load(context.Context) (*State, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	return decodeState(b)
}

func (f FileCheckpoint) Save(_ context.Context, st *State) error {
	b, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := fh.Write(b); err != nil {
		fh.Close()
		os.Remove(tmp)
		return err
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tmp)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, f.Path)
}

// RedisCheckpoint：gob 编码写入单个 Redis 键，适合多机共享同一份解析结果
type RedisCheckpoint struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func (c RedisCheckpoint) Load(ctx context.Context) (*State, error) {
	b, err := c.Client.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	return decodeState(b)
}

func (c RedisCheckpoint) Save(ctx context.Context, st *State) error {
	b, err := encodeState(st)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Key, b, c.TTL).Err()
}
