package altnames

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Sink：按语言归集的译名输出端
type Sink interface {
	Export(ctx context.Context, st *State) (int, error)
}

// RedisSink：每个实体一个 Hash，字段为语言代码，值为 JSON 数组
// 键格式：<prefix>:<kind>:<geoname_id>
type RedisSink struct {
	Client *redis.Client
	Prefix string
	Batch  int
}

func NewRedisSink(c *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "geonames:names"
	}
	return &RedisSink{Client: c, Prefix: prefix, Batch: 1000}
}

// Key：实体译名的 Redis 键
func (s *RedisSink) Key(kind geo.Kind, id int64) string {
	return fmt.Sprintf("%s:%s:%d", s.Prefix, kind, id)
}

// Export：分批流水线写入，返回写入的实体数
func (s *RedisSink) Export(ctx context.Context, st *State) (int, error) {
	batch := s.Batch
	if batch <= 0 {
		batch = 1000
	}
	pipe := s.Client.Pipeline()
	queued, total := 0, 0
	for _, kind := range []geo.Kind{geo.KindCountry, geo.KindRegion, geo.KindCity} {
		byID := st.Names[kind]
		ids := make([]int64, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fields, err := hashFields(byID[id])
			if err != nil {
				return total, err
			}
			if len(fields) == 0 {
				continue
			}
			pipe.HSet(ctx, s.Key(kind, id), fields)
			queued++
			if queued >= batch {
				if _, err := pipe.Exec(ctx); err != nil {
					return total, fmt.Errorf("export names: %w", err)
				}
				total += queued
				queued = 0
			}
		}
	}
	if queued > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return total, fmt.Errorf("export names: %w", err)
		}
		total += queued
	}
	logger.L().Info("altnames_export_done", "entities", total, "prefix", s.Prefix)
	return total, nil
}

func hashFields(names map[string][]string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(names))
	for lang, list := range names {
		if len(list) == 0 {
			continue
		}
		b, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		fields[lang] = string(b)
	}
	return fields, nil
}
