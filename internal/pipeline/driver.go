// 包 pipeline：按依赖顺序驱动各数据源导入（国家 -> 行政区 -> 城市 -> 译名）并汇总结果
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"geonames-sync/internal/altnames"
	"geonames-sync/internal/filter"
	"geonames-sync/internal/geo"
	"geonames-sync/internal/identity"
	"geonames-sync/internal/logger"
	"geonames-sync/internal/metrics"
	"geonames-sync/internal/reconcile"
	"geonames-sync/internal/source"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrDriverUsed：Driver 只能运行一次，阶段状态与缓存不复位
var ErrDriverUsed = errors.New("pipeline: driver already ran")

type Options struct {
	UpdateOnly      bool
	PreferredNames  bool
	Languages       []string
	NativeLanguages map[string]string
	Filters         *filter.Chain
	Progress        Progress
	// Checkpoint：非空时译名解析结果写入/读取检查点
	Checkpoint altnames.Checkpoint
	// Sink：非空时提交后导出按语言归集的译名
	Sink altnames.Sink
	// Buffer：预读通道容量
	Buffer int
}

type Driver struct {
	store geo.Store
	opts  Options
	ids   *identity.Resolver
	rec   *reconcile.Reconciler
	alt   *altnames.Resolver

	phase     Phase
	restored  bool
	parsed    bool
	altFailed bool
}

func New(store geo.Store, opts Options) *Driver {
	if opts.Filters == nil {
		opts.Filters = filter.Default(nil)
	}
	if opts.Progress == nil {
		opts.Progress = NopProgress{}
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	ids := identity.New(store)
	return &Driver{
		store: store,
		opts:  opts,
		ids:   ids,
		rec:   reconcile.New(store, ids, reconcile.Options{UpdateOnly: opts.UpdateOnly}),
		phase: PhaseIdle,
	}
}

// Phase：当前阶段
func (d *Driver) Phase() Phase { return d.phase }

func (d *Driver) setPhase(log *slog.Logger, p Phase) {
	if d.phase == p {
		return
	}
	log.Debug("pipeline_phase", "from", d.phase.String(), "to", p.String())
	d.phase = p
}

var kindOrder = map[geo.Kind]int{
	geo.KindCountry: 0,
	geo.KindRegion:  1,
	geo.KindCity:    2,
	geo.KindAltName: 3,
}

func phaseFor(kind geo.Kind) Phase {
	switch kind {
	case geo.KindCountry:
		return PhaseCountryImport
	case geo.KindRegion:
		return PhaseRegionImport
	}
	return PhaseCityImport
}

// Run：导入全部数据源并返回汇总
// 背景：数据源按类别重新排序，调用方给出的顺序无关紧要
// 异常：单个数据源失败只中止该数据源（记录在 Summary 中）；国家表为空（ErrNoCountries）或上下文取消时立即返回
func (d *Driver) Run(ctx context.Context, sources ...source.Source) (*Summary, error) {
	if d.phase != PhaseIdle {
		return nil, ErrDriverUsed
	}
	sum := &Summary{RunID: uuid.NewString()}
	log := logger.L().With("run_id", sum.RunID)
	d.opts.Filters.Seal()

	ordered := append([]source.Source(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool { return kindOrder[ordered[i].Kind] < kindOrder[ordered[j].Kind] })
	d.setPhase(log, PhaseSourcesPending)
	log.Info("import_begin", "sources", len(ordered), "update_only", d.opts.UpdateOnly, "preferred_names", d.opts.PreferredNames)

	for _, src := range ordered {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		var ss SourceSummary
		switch src.Kind {
		case geo.KindCountry, geo.KindRegion, geo.KindCity:
			d.setPhase(log, phaseFor(src.Kind))
			ss = d.importGeo(ctx, log, src)
		case geo.KindAltName:
			if d.alt == nil {
				if err := d.beginTranslations(ctx, log); err != nil {
					return sum, err
				}
			}
			ss = d.importTranslations(ctx, log, src)
			if ss.Err != nil {
				d.altFailed = true
			}
		default:
			ss = SourceSummary{Name: src.Name, Kind: src.Kind, Err: fmt.Errorf("unsupported source kind %s", src.Kind)}
		}
		sum.Sources = append(sum.Sources, ss)
		if ss.Err == nil {
			continue
		}
		metrics.SourcesFailedTotal.WithLabelValues(src.Kind.String()).Inc()
		if errors.Is(ss.Err, geo.ErrNoCountries) || errors.Is(ss.Err, context.Canceled) || errors.Is(ss.Err, context.DeadlineExceeded) {
			log.Error("import_aborted", "source", src.Name, "err", ss.Err)
			return sum, ss.Err
		}
		log.Error("import_source_failed", "source", src.Name, "kind", src.Kind.String(), "err", ss.Err)
	}

	if d.alt != nil {
		if err := d.finishTranslations(ctx, log, sum); err != nil {
			return sum, err
		}
	}
	d.setPhase(log, PhaseDone)
	log.Info("import_done", "sources", len(sum.Sources), "failed", sum.Failed())
	return sum, nil
}

type row struct {
	line int
	rec  source.Record
	err  error
}

// scan：读取协程负责逐行解码与过滤，消费端串行处理
// 约束：预读只发生在解码与过滤上；存储写入严格按行顺序执行
func (d *Driver) scan(ctx context.Context, src source.Source, fn func(row) error) error {
	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan row, d.opts.Buffer)
	g.Go(func() error {
		defer close(rows)
		return source.Scan(gctx, src, func(line int, text string) error {
			rec, err := source.Decode(src.Kind, text)
			if err == nil {
				err = d.opts.Filters.Apply(src.Kind, rec)
			}
			select {
			case rows <- row{line: line, rec: rec, err: err}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})
	g.Go(func() error {
		for r := range rows {
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}

func (d *Driver) beginSource(log *slog.Logger, src source.Source) {
	if b, ok := d.opts.Progress.(sourceBeginner); ok {
		b.OnSourceBegin(src.Name)
	}
	log.Info("import_source_begin", "source", src.Name, "kind", src.Kind.String(), "total", src.Total)
}

func (d *Driver) endSource(log *slog.Logger, ss *SourceSummary, start time.Time) {
	ss.Duration = time.Since(start)
	d.opts.Progress.OnSourceDone()
	metrics.SourceDurationMs.WithLabelValues(ss.Kind.String()).Observe(float64(ss.Duration.Milliseconds()))
	log.Info("import_source_done",
		"source", ss.Name,
		"processed", ss.Processed,
		"created", ss.Created,
		"updated", ss.Updated,
		"unchanged", ss.Unchanged,
		"skipped", ss.Skipped,
		"failed", ss.Failed,
		"duration_ms", ss.Duration.Milliseconds(),
	)
}

// rowError：行级错误分类；返回非 nil 表示中止当前数据源
func (d *Driver) rowError(log *slog.Logger, ss *SourceSummary, line int, err error) error {
	kind := ss.Kind.String()
	switch {
	case errors.Is(err, geo.ErrRejectedRecord):
		ss.Skipped++
		metrics.RowsTotal.WithLabelValues(kind, "rejected").Inc()
		return nil
	case errors.Is(err, geo.ErrMalformedRecord):
		ss.Failed++
		metrics.RowsTotal.WithLabelValues(kind, "failed").Inc()
		re := locate(ss.Name, line, err)
		log.Warn("import_row_failed", "source", re.Source, "line", re.Line, "field", re.Field, "err", re.Err)
		return nil
	}
	ss.Failed++
	metrics.RowsTotal.WithLabelValues(kind, "failed").Inc()
	return locate(ss.Name, line, err)
}

// locate：为行级错误补齐数据源与行号；字段级错误保留其字段名
func locate(name string, line int, err error) *geo.RecordError {
	var re *geo.RecordError
	if errors.As(err, &re) && re.Source == "" {
		out := *re
		out.Source, out.Line = name, line
		return &out
	}
	return &geo.RecordError{Source: name, Line: line, Err: err}
}

func (d *Driver) importGeo(ctx context.Context, log *slog.Logger, src source.Source) SourceSummary {
	ss := SourceSummary{Name: src.Name, Kind: src.Kind, Total: src.Total}
	start := time.Now()
	d.beginSource(log, src)
	err := d.scan(ctx, src, func(r row) error {
		ss.Processed++
		d.opts.Progress.OnProgress(ss.Processed, src.Total)
		if r.err != nil {
			return d.rowError(log, &ss, r.line, r.err)
		}
		out, err := d.rec.Reconcile(ctx, src.Kind, r.rec)
		if err != nil {
			return d.rowError(log, &ss, r.line, err)
		}
		switch out {
		case reconcile.Created:
			ss.Created++
		case reconcile.Updated:
			ss.Updated++
		case reconcile.Dropped:
			ss.Skipped++
		default:
			ss.Unchanged++
		}
		metrics.RowsTotal.WithLabelValues(src.Kind.String(), out.String()).Inc()
		return nil
	})
	if err != nil && (errors.Is(err, geo.ErrUnknownCountry) || errors.Is(err, geo.ErrUnknownParent)) {
		if n, cerr := d.store.CountCountries(ctx); cerr == nil && n == 0 {
			err = fmt.Errorf("%w: %w", geo.ErrNoCountries, err)
		}
	}
	ss.Err = err
	d.endSource(log, &ss, start)
	return ss
}

// beginTranslations：释放身份缓存，构建译名解析器并尝试加载检查点
func (d *Driver) beginTranslations(ctx context.Context, log *slog.Logger) error {
	countries, regions := d.ids.Size()
	d.ids.Release()
	log.Info("identity_cache_released", "countries", countries, "regions", regions)
	d.setPhase(log, PhaseTranslationImport)
	alt, err := altnames.New(ctx, d.store, altnames.Options{
		Languages:       d.opts.Languages,
		NativeLanguages: d.opts.NativeLanguages,
		PreferredNames:  d.opts.PreferredNames,
	})
	if err != nil {
		return fmt.Errorf("prepare alternate names: %w", err)
	}
	d.alt = alt
	if d.opts.Checkpoint == nil {
		return nil
	}
	st, err := d.opts.Checkpoint.Load(ctx)
	switch {
	case err == nil:
		d.alt.Restore(st)
		d.restored = true
		log.Info("altnames_checkpoint_loaded", "candidates", len(st.Candidates))
	case errors.Is(err, altnames.ErrNoCheckpoint):
		log.Debug("altnames_checkpoint_missing")
	default:
		log.Warn("altnames_checkpoint_load_failed", "err", err)
	}
	return nil
}

// importTranslations：被采用的译名行计入 Updated，未采用的计入 Skipped
func (d *Driver) importTranslations(ctx context.Context, log *slog.Logger, src source.Source) SourceSummary {
	ss := SourceSummary{Name: src.Name, Kind: src.Kind, Total: src.Total}
	if d.restored {
		ss.FromCheckpoint = true
		log.Info("import_source_skipped", "source", src.Name, "reason", "checkpoint")
		return ss
	}
	start := time.Now()
	d.beginSource(log, src)
	err := d.scan(ctx, src, func(r row) error {
		ss.Processed++
		d.opts.Progress.OnProgress(ss.Processed, src.Total)
		if r.err != nil {
			return d.rowError(log, &ss, r.line, r.err)
		}
		alt, err := altnames.ParseRow(r.rec)
		if err != nil {
			return d.rowError(log, &ss, r.line, err)
		}
		if d.alt.Add(alt) {
			ss.Updated++
		} else {
			ss.Skipped++
		}
		return nil
	})
	ss.Err = err
	if err == nil {
		d.parsed = true
	}
	d.endSource(log, &ss, start)
	return ss
}

// finishTranslations：保存检查点、提交首选名称、导出译名，最后释放解析器
func (d *Driver) finishTranslations(ctx context.Context, log *slog.Logger, sum *Summary) error {
	defer d.alt.Release()
	if d.altFailed {
		log.Warn("altnames_commit_skipped", "reason", "translation source failed")
		return nil
	}
	if d.opts.Checkpoint != nil && d.parsed && !d.restored {
		if err := d.opts.Checkpoint.Save(ctx, d.alt.State()); err != nil {
			log.Warn("altnames_checkpoint_save_failed", "err", err)
		} else {
			log.Info("altnames_checkpoint_saved")
		}
	}
	if d.opts.PreferredNames {
		d.setPhase(log, PhasePreferredNameCommit)
		st, err := d.alt.Commit(ctx, d.store)
		sum.Commit = st
		if err != nil {
			return fmt.Errorf("commit preferred names: %w", err)
		}
	}
	if d.opts.Sink != nil {
		n, err := d.opts.Sink.Export(ctx, d.alt.State())
		sum.Exported = n
		if err != nil {
			log.Error("altnames_export_failed", "err", err)
		}
	}
	return nil
}
