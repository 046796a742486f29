// 包 config：导入运行参数，按 默认值 -> 环境变量 -> YAML 覆盖文件 -> 命令行 的顺序叠加
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CheckpointRedis：Checkpoint 取该值时译名检查点写入 Redis，其余非空值视为文件路径
const CheckpointRedis = "redis"

type Config struct {
	DataDir string
	// Files：按类别覆盖数据文件路径（country/region/city/altname），可多个
	Files map[string][]string
	// TranslationLanguages：归集译名的语言白名单
	TranslationLanguages []string
	// NativeLanguages：国家二位代码（小写）-> 母语代码
	NativeLanguages map[string]string
	// CityMarkers：城市要素代码需包含的标记（子串匹配）
	CityMarkers    []string
	Countries      []string
	PreferredNames bool
	UpdateOnly     bool
	Checkpoint     string
	RedisPrefix    string
}

// Default：与上游默认数据集匹配的默认配置
func Default() Config {
	native := make(map[string]string, len(DefaultNativeLanguages))
	for k, v := range DefaultNativeLanguages {
		native[k] = v
	}
	return Config{
		DataDir:              "data",
		Files:                map[string][]string{},
		TranslationLanguages: []string{"es", "en", "pt", "de", "pl", "abbr"},
		NativeLanguages:      native,
		CityMarkers:          []string{"PPL"},
		PreferredNames:       true,
		RedisPrefix:          "geonames:names",
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ApplyEnv：读取 GEONAMES_* 环境变量；未设置的项保持原值
// 异常：布尔值无法解析时返回错误，不静默忽略
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("GEONAMES_DATA_DIR")); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("GEONAMES_TRANSLATION_LANGUAGES"); v != "" {
		c.TranslationLanguages = splitList(v)
	}
	if v := os.Getenv("GEONAMES_CITY_TYPES"); v != "" {
		c.CityMarkers = splitList(v)
	}
	if v := os.Getenv("GEONAMES_COUNTRIES"); v != "" {
		c.Countries = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("GEONAMES_CHECKPOINT")); v != "" {
		c.Checkpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("GEONAMES_REDIS_PREFIX")); v != "" {
		c.RedisPrefix = v
	}
	for name, dst := range map[string]*bool{
		"GEONAMES_PREFERRED_NAMES": &c.PreferredNames,
		"GEONAMES_NOINSERT":        &c.UpdateOnly,
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

// fileConfig：YAML 覆盖文件结构；指针字段区分“未设置”与零值
type fileConfig struct {
	DataDir              *string             `yaml:"data_dir"`
	Files                map[string][]string `yaml:"files"`
	TranslationLanguages []string            `yaml:"translation_languages"`
	NativeLanguages      map[string]string   `yaml:"native_languages"`
	CityTypes            []string            `yaml:"city_types"`
	Countries            []string            `yaml:"countries"`
	PreferredNames       *bool               `yaml:"preferred_names"`
	UpdateOnly           *bool               `yaml:"update_only"`
	Checkpoint           *string             `yaml:"checkpoint"`
	RedisPrefix          *string             `yaml:"redis_prefix"`
}

// LoadFile：读取 YAML 覆盖文件
// 约束：native_languages 逐项合并到现有表；其余字段出现即整体替换
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.apply(b)
}

func (c *Config) apply(b []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if fc.DataDir != nil {
		c.DataDir = *fc.DataDir
	}
	if c.Files == nil {
		c.Files = map[string][]string{}
	}
	for k, v := range fc.Files {
		c.Files[strings.ToLower(k)] = v
	}
	if fc.TranslationLanguages != nil {
		c.TranslationLanguages = fc.TranslationLanguages
	}
	if c.NativeLanguages == nil {
		c.NativeLanguages = map[string]string{}
	}
	for k, v := range fc.NativeLanguages {
		c.NativeLanguages[strings.ToLower(k)] = strings.ToLower(v)
	}
	if fc.CityTypes != nil {
		c.CityMarkers = fc.CityTypes
	}
	if fc.Countries != nil {
		c.Countries = fc.Countries
	}
	if fc.PreferredNames != nil {
		c.PreferredNames = *fc.PreferredNames
	}
	if fc.UpdateOnly != nil {
		c.UpdateOnly = *fc.UpdateOnly
	}
	if fc.Checkpoint != nil {
		c.Checkpoint = *fc.Checkpoint
	}
	if fc.RedisPrefix != nil {
		c.RedisPrefix = *fc.RedisPrefix
	}
	return nil
}
