// 包 identity：把上游的国家/行政区代码翻译为本地主键，按运行期惰性缓存
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/metrics"

	"github.com/patrickmn/go-cache"
)

// Lookup：解析所需的最小存储能力
type Lookup interface {
	CountryByCode(ctx context.Context, code2 string) (*geo.Country, error)
	RegionByCode(ctx context.Context, countryID int64, code string) (*geo.Region, error)
}

// Resolver：国家与行政区的代码 -> 主键缓存
// 背景：城市导入时每行都需要解析国家与行政区，逐行查库代价过高；两级缓存在首次查找时填充。
// 约束：缓存不过期，仅在 Release 时整体清空；未命中（不存在）的结果不缓存，以便同一运行中后续创建后可见。
type Resolver struct {
	store     Lookup
	countries *cache.Cache
	regions   *cache.Cache
}

func New(store Lookup) *Resolver {
	return &Resolver{
		store:     store,
		countries: cache.New(cache.NoExpiration, 0),
		regions:   cache.New(cache.NoExpiration, 0),
	}
}

// CountryKey：国家二位代码 -> 本地主键
func (r *Resolver) CountryKey(ctx context.Context, code2 string) (int64, error) {
	code2 = strings.TrimSpace(code2)
	if v, ok := r.countries.Get(code2); ok {
		metrics.IdentityLookupsTotal.WithLabelValues("country", "hit").Inc()
		return v.(int64), nil
	}
	c, err := r.store.CountryByCode(ctx, code2)
	if errors.Is(err, geo.ErrNotFound) {
		metrics.IdentityLookupsTotal.WithLabelValues("country", "unknown").Inc()
		return 0, fmt.Errorf("%w: %q", geo.ErrUnknownCountry, code2)
	}
	if err != nil {
		return 0, err
	}
	metrics.IdentityLookupsTotal.WithLabelValues("country", "miss").Inc()
	r.countries.Set(code2, c.ID, cache.NoExpiration)
	return c.ID, nil
}

// RegionKey：（国家代码，行政区代码）-> 本地主键
// 约束：国家无法解析时同样返回 ErrUnknownParent，调用方只需区分一种父级缺失
func (r *Resolver) RegionKey(ctx context.Context, code2, regionCode string) (int64, error) {
	key := strings.TrimSpace(code2) + "." + strings.TrimSpace(regionCode)
	if v, ok := r.regions.Get(key); ok {
		metrics.IdentityLookupsTotal.WithLabelValues("region", "hit").Inc()
		return v.(int64), nil
	}
	countryID, err := r.CountryKey(ctx, code2)
	if errors.Is(err, geo.ErrUnknownCountry) {
		return 0, fmt.Errorf("%w: region %s: %v", geo.ErrUnknownParent, key, err)
	}
	if err != nil {
		return 0, err
	}
	reg, err := r.store.RegionByCode(ctx, countryID, strings.TrimSpace(regionCode))
	if errors.Is(err, geo.ErrNotFound) {
		metrics.IdentityLookupsTotal.WithLabelValues("region", "unknown").Inc()
		return 0, fmt.Errorf("%w: region %s", geo.ErrUnknownParent, key)
	}
	if err != nil {
		return 0, err
	}
	metrics.IdentityLookupsTotal.WithLabelValues("region", "miss").Inc()
	r.regions.Set(key, reg.ID, cache.NoExpiration)
	return reg.ID, nil
}

// Size：当前缓存条目数
func (r *Resolver) Size() (countries, regions int) {
	return r.countries.ItemCount(), r.regions.ItemCount()
}

// Release：清空两级缓存，进入译名阶段前调用以释放内存
func (r *Resolver) Release() {
	r.countries.Flush()
	r.regions.Flush()
}
