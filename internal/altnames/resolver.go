// 包 altnames：从多语言译名流中为每个实体挑选唯一的本地化首选名称，并按语言归集译名
// 背景：译名文件有千万行级规模，只保留已入库实体相关的行；两遍处理（收集候选 -> 提交）以限制内存。
package altnames

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/logger"
	"geonames-sync/internal/metrics"
)

// Candidates：单个实体的首选名称候选
// 约束：Exact 来自带 preferred 标志的行（后写覆盖）；Matching 以译名行 ID 为键
type Candidates struct {
	Exact    string
	Matching map[int64]string
}

// Winner：Exact 优先，否则取译名行 ID 最大的候选
func (c *Candidates) Winner() (string, bool) {
	if c == nil {
		return "", false
	}
	if c.Exact != "" {
		return c.Exact, true
	}
	var best int64
	name, ok := "", false
	for id, n := range c.Matching {
		if !ok || id > best {
			best, name, ok = id, n, true
		}
	}
	return name, ok
}

// State：解析阶段的全部产物，可序列化为检查点
type State struct {
	Candidates map[int64]*Candidates
	// Names：类别 -> geoname_id -> 语言 -> 译名列表
	Names map[geo.Kind]map[int64]map[string][]string
}

func newState() *State {
	return &State{
		Candidates: map[int64]*Candidates{},
		Names: map[geo.Kind]map[int64]map[string][]string{
			geo.KindCountry: {},
			geo.KindRegion:  {},
			geo.KindCity:    {},
		},
	}
}

type Options struct {
	// Languages：归集译名的语言白名单
	Languages []string
	// NativeLanguages：国家二位代码（小写）-> 母语代码
	NativeLanguages map[string]string
	// PreferredNames：是否挑选并提交首选名称
	PreferredNames bool
}

// Index：构建已知实体集合所需的只读索引
type Index interface {
	GeonameIndex(ctx context.Context, kind geo.Kind) (map[int64]string, error)
}

// Writer：提交阶段所需的存储能力
type Writer interface {
	EntityByGeonameID(ctx context.Context, kind geo.Kind, id int64) (*geo.Base, error)
	SetPreferredName(ctx context.Context, kind geo.Kind, id int64, name string) error
}

type Resolver struct {
	opts   Options
	langs  map[string]struct{}
	native map[string]string
	known  map[geo.Kind]map[int64]struct{}
	codes  map[int64]string
	state  *State
}

// New：按国家 -> 行政区 -> 城市顺序构建互不相交的已知 ID 集合
// 约束：同一 geoname_id 出现在多个类别时按该顺序归类
func New(ctx context.Context, idx Index, opts Options) (*Resolver, error) {
	r := &Resolver{
		opts:   opts,
		langs:  map[string]struct{}{},
		native: map[string]string{},
		known:  map[geo.Kind]map[int64]struct{}{},
		state:  newState(),
	}
	for _, l := range opts.Languages {
		r.langs[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	for cc, l := range opts.NativeLanguages {
		r.native[strings.ToLower(cc)] = strings.ToLower(l)
	}
	if opts.PreferredNames {
		r.codes = map[int64]string{}
	}
	for _, kind := range []geo.Kind{geo.KindCountry, geo.KindRegion, geo.KindCity} {
		ids, err := idx.GeonameIndex(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s index: %w", kind, err)
		}
		set := make(map[int64]struct{}, len(ids))
		for id, cc := range ids {
			if _, ok := r.classify(id); ok {
				continue
			}
			set[id] = struct{}{}
			if r.codes != nil {
				r.codes[id] = strings.ToLower(cc)
			}
		}
		r.known[kind] = set
	}
	logger.L().Info("altnames_index_ready",
		"countries", len(r.known[geo.KindCountry]),
		"regions", len(r.known[geo.KindRegion]),
		"cities", len(r.known[geo.KindCity]),
	)
	return r, nil
}

func (r *Resolver) classify(id int64) (geo.Kind, bool) {
	for _, kind := range []geo.Kind{geo.KindCountry, geo.KindRegion, geo.KindCity} {
		if _, ok := r.known[kind][id]; ok {
			return kind, true
		}
	}
	return 0, false
}

// Add：吸收一行译名；返回该行是否被使用
func (r *Resolver) Add(row Row) bool {
	kind, ok := r.classify(row.GeonameID)
	if !ok || row.Name == "" {
		metrics.AltNamesTotal.WithLabelValues("ignored").Inc()
		return false
	}
	used := false
	if r.opts.PreferredNames {
		if lang, ok := r.native[r.codes[row.GeonameID]]; ok && lang == row.Language {
			c := r.state.Candidates[row.GeonameID]
			if c == nil {
				c = &Candidates{Matching: map[int64]string{}}
				r.state.Candidates[row.GeonameID] = c
			}
			if row.Preferred {
				c.Exact = row.Name
			} else {
				c.Matching[row.ID] = row.Name
			}
			used = true
		}
	}
	if _, ok := r.langs[row.Language]; ok && !row.Short && !row.Colloquial && !row.Historic {
		byID := r.state.Names[kind]
		names := byID[row.GeonameID]
		if names == nil {
			names = map[string][]string{}
			byID[row.GeonameID] = names
		}
		names[row.Language] = append(names[row.Language], row.Name)
		used = true
	}
	if used {
		metrics.AltNamesTotal.WithLabelValues("used").Inc()
	} else {
		metrics.AltNamesTotal.WithLabelValues("ignored").Inc()
	}
	return used
}

// State / Restore：导出与恢复解析产物（检查点）
func (r *Resolver) State() *State { return r.state }

func (r *Resolver) Restore(st *State) {
	if st == nil {
		return
	}
	if st.Candidates == nil {
		st.Candidates = map[int64]*Candidates{}
	}
	if st.Names == nil {
		st.Names = newState().Names
	}
	r.state = st
}

// names：实体的按语言译名
func (r *Resolver) names(kind geo.Kind, id int64) map[string][]string {
	return r.state.Names[kind][id]
}

// CommitStats：提交阶段统计
type CommitStats struct {
	Updated   int
	Unchanged int
	Locked    int
	Missing   int
}

// Commit：把候选胜者写回实体的 preferred_name
// 约束：update_preferred_name 为 false 的实体不动；胜者与现值相同不写
func (r *Resolver) Commit(ctx context.Context, w Writer) (CommitStats, error) {
	var st CommitStats
	if !r.opts.PreferredNames {
		return st, nil
	}
	ids := make([]int64, 0, len(r.state.Candidates))
	for id := range r.state.Candidates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		kind, ok := r.classify(id)
		if !ok {
			st.Missing++
			continue
		}
		winner, ok := r.state.Candidates[id].Winner()
		if !ok {
			continue
		}
		e, err := w.EntityByGeonameID(ctx, kind, id)
		if errors.Is(err, geo.ErrNotFound) {
			st.Missing++
			continue
		}
		if err != nil {
			return st, fmt.Errorf("load %s %d: %w", kind, id, err)
		}
		if !e.UpdatePreferredName {
			st.Locked++
			continue
		}
		if e.PreferredName == winner {
			st.Unchanged++
			continue
		}
		if err := w.SetPreferredName(ctx, kind, e.ID, winner); err != nil {
			return st, fmt.Errorf("set preferred name %s %d: %w", kind, id, err)
		}
		metrics.PreferredNamesTotal.WithLabelValues(kind.String()).Inc()
		st.Updated++
	}
	logger.L().Info("altnames_commit_done", "updated", st.Updated, "unchanged", st.Unchanged, "locked", st.Locked, "missing", st.Missing)
	return st, nil
}

// Release：释放全部集合与解析产物
func (r *Resolver) Release() {
	r.known = map[geo.Kind]map[int64]struct{}{}
	r.codes = nil
	r.state = newState()
}
