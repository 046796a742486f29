package pipeline

import (
	"time"

	"geonames-sync/internal/altnames"
	"geonames-sync/internal/geo"
)

// SourceSummary：单个数据源的计数
// 约束：Processed = Created + Updated + Unchanged + Skipped + Failed
type SourceSummary struct {
	Name           string
	Kind           geo.Kind
	Total          int
	Processed      int
	Created        int
	Updated        int
	Unchanged      int
	Skipped        int
	Failed         int
	FromCheckpoint bool
	Duration       time.Duration
	Err            error
}

type Summary struct {
	RunID    string
	Sources  []SourceSummary
	Commit   altnames.CommitStats
	Exported int
}

// Source：按名称查找数据源计数
func (s *Summary) Source(name string) *SourceSummary {
	for i := range s.Sources {
		if s.Sources[i].Name == name {
			return &s.Sources[i]
		}
	}
	return nil
}

// Failed：是否有数据源被中止
func (s *Summary) Failed() bool {
	for _, src := range s.Sources {
		if src.Err != nil {
			return true
		}
	}
	return false
}
