// 包 filter：导入前的行级过滤链，按注册顺序执行，首个否决即短路
package filter

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/source"
)

// ErrSealed：运行开始后禁止再注册过滤器
var ErrSealed = errors.New("filter chain sealed")

// Predicate：返回 nil 表示放行；否决时返回包装 geo.ErrRejectedRecord 的错误
// 约束：不得修改 rec，可能在读取协程中并发调用
type Predicate func(kind geo.Kind, rec source.Record) error

type Chain struct {
	mu     sync.RWMutex
	preds  []Predicate
	sealed bool
}

func NewChain(preds ...Predicate) *Chain {
	return &Chain{preds: preds}
}

// Default：默认过滤链，仅保留居民点类城市
func Default(markers []string) *Chain {
	return NewChain(PopulatedPlaces(markers))
}

func (c *Chain) Register(p Predicate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return ErrSealed
	}
	c.preds = append(c.preds, p)
	return nil
}

// Seal：由管线在首个数据源开始前调用
func (c *Chain) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

func (c *Chain) Apply(kind geo.Kind, rec source.Record) error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	preds := c.preds
	c.mu.RUnlock()
	for _, p := range preds {
		if err := p(kind, rec); err != nil {
			if !errors.Is(err, geo.ErrRejectedRecord) {
				err = fmt.Errorf("%w: %v", geo.ErrRejectedRecord, err)
			}
			return err
		}
	}
	return nil
}

// PopulatedPlaces：城市行的要素代码需包含任一标记（子串匹配，默认 PPL）
func PopulatedPlaces(markers []string) Predicate {
	if len(markers) == 0 {
		markers = []string{"PPL"}
	}
	return func(kind geo.Kind, rec source.Record) error {
		if kind != geo.KindCity {
			return nil
		}
		code := rec.Get(source.CityFeatureCode)
		for _, m := range markers {
			if strings.Contains(code, m) {
				return nil
			}
		}
		return fmt.Errorf("%w: feature code %q", geo.ErrRejectedRecord, code)
	}
}

// CountryAllowList：仅保留指定国家的行政区与城市
func CountryAllowList(codes ...string) Predicate {
	allow := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		allow[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return func(kind geo.Kind, rec source.Record) error {
		var code string
		switch kind {
		case geo.KindRegion:
			code, _, _ = strings.Cut(rec.Get(source.RegionCode), ".")
		case geo.KindCity:
			code = rec.Get(source.CityCountryCode)
		default:
			return nil
		}
		if _, ok := allow[strings.ToUpper(code)]; ok {
			return nil
		}
		return fmt.Errorf("%w: country %q not allowed", geo.ErrRejectedRecord, code)
	}
}
