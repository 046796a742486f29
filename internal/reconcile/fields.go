package reconcile

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"geonames-sync/internal/geo"
)

// changes：记录本次合并是否改动了任何字段
// 约束：除 geoname_id 外所有 set* 仅在目标为空/零值时写入
type changes bool

func (c *changes) setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
		*c = true
	}
}

func (c *changes) setInt64(dst *int64, v int64) {
	if *dst == 0 && v != 0 {
		*dst = v
		*c = true
	}
}

func (c *changes) setFloat(dst **float64, v *float64) {
	if *dst == nil && v != nil {
		*dst = v
		*c = true
	}
}

func (c *changes) setGeonameID(dst **int64, v *int64) {
	if v == nil {
		return
	}
	if *dst == nil || **dst != *v {
		*dst = geo.Int64(*v)
		*c = true
	}
}

func parseOptionalID(field, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, geo.MalformedField(field, "invalid id %q", raw)
	}
	return &v, nil
}

func parseCount(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, geo.MalformedField(field, "invalid count %q", raw)
	}
	return v, nil
}

// parseCoordinate：解析经纬度并保留 5 位小数
func parseCoordinate(field, raw string, limit float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > limit {
		return nil, geo.MalformedField(field, "invalid coordinate %q", raw)
	}
	v = math.Round(v*1e5) / 1e5
	return &v, nil
}

var phoneRE = regexp.MustCompile(`^\+?(\d+)`)

// ParsePhoneCode：解析国际区号
// 背景：上游存在 "+1-809 and 1-829" 一类多值写法；仅当归并后只剩一个区号时采用，否则视为无区号
func ParsePhoneCode(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
		return &v
	}
	codes := map[int]struct{}{}
	for _, part := range strings.Split(raw, "and") {
		m := phoneRE.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		if v, err := strconv.Atoi(m[1]); err == nil {
			codes[v] = struct{}{}
		}
	}
	if len(codes) != 1 {
		return nil
	}
	for v := range codes {
		return &v
	}
	return nil
}

func splitLanguages(raw string) []string {
	var out []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// asciiName：优先采用数据源的 ASCII 列，否则由名称音译
func asciiName(column, name string) string {
	if column = strings.TrimSpace(column); column != "" {
		return column
	}
	return geo.ToASCII(name)
}
