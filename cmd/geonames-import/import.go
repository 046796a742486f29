package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"geonames-sync/internal/altnames"
	"geonames-sync/internal/config"
	"geonames-sync/internal/filter"
	"geonames-sync/internal/geo"
	"geonames-sync/internal/ingest"
	"geonames-sync/internal/logger"
	"geonames-sync/internal/metrics"
	"geonames-sync/internal/migrate"
	"geonames-sync/internal/pipeline"
	"geonames-sync/internal/source"
	"geonames-sync/internal/store"
	"geonames-sync/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var importFlags struct {
	dataDir            string
	countries          []string
	regions            []string
	cities             []string
	translations       []string
	allow              []string
	cityTypes          []string
	noInsert           bool
	skipPreferredNames bool
	hackTranslations   bool
	checkpoint         string
	dryRun             bool
	migrate            bool
	exportNames        bool
	progressEvery      int
	weekly             bool
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "导入 GeoNames 转储",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.dataDir, "data-dir", "", "directory holding the dump files")
	f.StringSliceVar(&importFlags.countries, "country", nil, "country source files (default countryInfo.txt)")
	f.StringSliceVar(&importFlags.regions, "region", nil, "region source files (default admin1CodesASCII.txt)")
	f.StringSliceVar(&importFlags.cities, "city", nil, "city source files (default cities15000.zip)")
	f.StringSliceVar(&importFlags.translations, "translations", nil, "alternate name files (default alternateNames.zip)")
	f.StringSliceVar(&importFlags.allow, "only-countries", nil, "import regions and cities of these ISO codes only")
	f.StringSliceVar(&importFlags.cityTypes, "city-types", nil, "feature code markers accepted as cities")
	f.BoolVar(&importFlags.noInsert, "noinsert", false, "update existing records only, never create")
	f.BoolVar(&importFlags.skipPreferredNames, "skip-preferred-names", false, "do not compute preferred names")
	f.BoolVar(&importFlags.hackTranslations, "hack-translations", false, "reuse parsed alternate names from a checkpoint file in the data dir")
	f.StringVar(&importFlags.checkpoint, "checkpoint", "", "checkpoint file path, or \"redis\"")
	f.BoolVar(&importFlags.dryRun, "dry-run", false, "import into memory and print the summary only")
	f.BoolVar(&importFlags.migrate, "migrate", false, "create tables before importing")
	f.BoolVar(&importFlags.exportNames, "export-names", false, "export per-language names to redis")
	f.IntVar(&importFlags.progressEvery, "progress-every", 50000, "log progress every N rows")
	f.BoolVar(&importFlags.weekly, "weekly", false, "stay resident and re-import on the INGEST_* weekly schedule")
	rootCmd.AddCommand(importCmd)
}

// loadConfig：默认值 -> 环境变量 -> --conf 文件 -> 命令行
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if cfgPath != "" {
		if err := cfg.LoadFile(cfgPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = importFlags.dataDir
	}
	for name, files := range map[string][]string{
		geo.KindCountry.String(): importFlags.countries,
		geo.KindRegion.String():  importFlags.regions,
		geo.KindCity.String():    importFlags.cities,
		geo.KindAltName.String(): importFlags.translations,
	} {
		if len(files) > 0 {
			cfg.Files[name] = files
		}
	}
	if flags.Changed("only-countries") {
		cfg.Countries = importFlags.allow
	}
	if flags.Changed("city-types") {
		cfg.CityMarkers = importFlags.cityTypes
	}
	if flags.Changed("noinsert") {
		cfg.UpdateOnly = importFlags.noInsert
	}
	if importFlags.skipPreferredNames {
		cfg.PreferredNames = false
	}
	if flags.Changed("checkpoint") {
		cfg.Checkpoint = importFlags.checkpoint
	}
	if importFlags.hackTranslations && cfg.Checkpoint == "" {
		cfg.Checkpoint = filepath.Join(cfg.DataDir, "translation_hack.gob")
	}
	return cfg, nil
}

// resolveSources：按类别定位数据文件；文件不存在视为本次跳过该数据源
func resolveSources(cfg config.Config) ([]source.Source, error) {
	var out []source.Source
	for _, kind := range []geo.Kind{geo.KindCountry, geo.KindRegion, geo.KindCity, geo.KindAltName} {
		files := cfg.Files[kind.String()]
		if len(files) == 0 {
			files = []string{source.DefaultFiles[kind]}
		}
		for _, f := range files {
			path := f
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.DataDir, path)
			}
			src, err := source.Open(path, kind)
			if errors.Is(err, fs.ErrNotExist) {
				logger.L().Warn("import_source_missing", "kind", kind.String(), "path", path)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			out = append(out, src)
		}
	}
	return out, nil
}

func checkpointFor(cfg config.Config, rc *redis.Client) (altnames.Checkpoint, error) {
	switch cfg.Checkpoint {
	case "":
		return nil, nil
	case config.CheckpointRedis:
		if rc == nil {
			return nil, errors.New("redis checkpoint requested but REDIS_HOST is not set")
		}
		return altnames.RedisCheckpoint{Client: rc, Key: cfg.RedisPrefix + ":checkpoint", TTL: 7 * 24 * time.Hour}, nil
	}
	return altnames.FileCheckpoint{Path: cfg.Checkpoint}, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("metrics_listen_failed", "addr", addr, "err", err)
		}
	}()
	logger.L().Info("metrics_listen", "addr", addr)
}

func runImport(cmd *cobra.Command, args []string) error {
	logger.Setup()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		serveMetrics(addr)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if importFlags.weekly {
		return ingest.RunWeekly(ctx, ingest.ScheduleFromEnv(), func(ctx context.Context) error {
			return importOnce(ctx, cfg)
		})
	}
	return importOnce(ctx, cfg)
}

// importOnce：打开存储与可选的 Redis，执行一次完整导入并打印汇总
func importOnce(ctx context.Context, cfg config.Config) error {
	l := logger.L()
	var st geo.Store
	if importFlags.dryRun {
		st = store.NewMemory()
		l.Info("import_dry_run")
	} else {
		db, driver, err := utils.OpenFromEnv()
		if err != nil {
			return err
		}
		defer db.Close()
		if importFlags.migrate {
			if err := migrate.EnsureSchema(db, driver); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		st = store.AttachDB(db, driver)
	}

	rc := utils.OpenRedisFromEnv()
	if rc != nil {
		defer rc.Close()
	}
	cp, err := checkpointFor(cfg, rc)
	if err != nil {
		return err
	}
	var sink altnames.Sink
	if importFlags.exportNames {
		if rc == nil {
			return errors.New("--export-names requires REDIS_HOST")
		}
		sink = altnames.NewRedisSink(rc, cfg.RedisPrefix)
	}

	chain := filter.Default(cfg.CityMarkers)
	if len(cfg.Countries) > 0 {
		if err := chain.Register(filter.CountryAllowList(cfg.Countries...)); err != nil {
			return err
		}
	}

	sources, err := resolveSources(cfg)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no source files found in %s", cfg.DataDir)
	}

	d := pipeline.New(st, pipeline.Options{
		UpdateOnly:      cfg.UpdateOnly,
		PreferredNames:  cfg.PreferredNames,
		Languages:       cfg.TranslationLanguages,
		NativeLanguages: cfg.NativeLanguages,
		Filters:         chain,
		Progress:        logger.NewProgress(l, importFlags.progressEvery),
		Checkpoint:      cp,
		Sink:            sink,
	})
	sum, err := d.Run(ctx, sources...)
	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		return err
	}
	if sum.Failed() {
		return errors.New("one or more sources failed")
	}
	return nil
}

func printSummary(sum *pipeline.Summary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run %s\n", sum.RunID)
	fmt.Fprintln(w, "SOURCE\tKIND\tPROCESSED\tCREATED\tUPDATED\tUNCHANGED\tSKIPPED\tFAILED\tDURATION\tERROR")
	for _, s := range sum.Sources {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		if s.FromCheckpoint {
			errText = "loaded from checkpoint"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n", s.Name, s.Kind, s.Processed, s.Created, s.Updated,
			s.Unchanged, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond), errText)
	}
	fmt.Fprintf(w, "preferred names\tupdated=%d unchanged=%d locked=%d missing=%d\n",
		sum.Commit.Updated, sum.Commit.Unchanged, sum.Commit.Locked, sum.Commit.Missing)
	if sum.Exported > 0 {
		fmt.Fprintf(w, "exported\t%d\n", sum.Exported)
	}
	w.Flush()
}
