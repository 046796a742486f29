package store

import (
	"context"
	"fmt"
	"sync"

	"geonames-sync/internal/geo"
)

// Memory：进程内存储实现，用于演练（--dry-run）与测试
// 约束：读写均以副本交换，调用方修改返回值不会影响已存数据；writes 统计 Create/Update/SetPreferredName 次数
// 约束：查找与唯一性校验均走二级索引，put* 负责先摘除旧键再登记新键，导入规模为线性
type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	countries map[int64]geo.Country
	regions   map[int64]geo.Region
	cities    map[int64]geo.City
	writes    int

	countryByCode map[string]int64
	countryByName map[string]int64
	gids          map[geo.Kind]map[int64]int64
	regionByName  map[scopedKey]int64
	regionByCode  map[scopedKey]idSet
	cityByRegion  map[scopedKey]int64
	cityByName    map[scopedKey]idSet
}

// scopedKey：父级 id + 名称/代码
type scopedKey struct {
	parent int64
	key    string
}

// idSet：非唯一索引的取值；按最小 id 选取，结果稳定
type idSet map[int64]struct{}

func (s idSet) min() (int64, bool) {
	var out int64
	ok := false
	for id := range s {
		if !ok || id < out {
			out, ok = id, true
		}
	}
	return out, ok
}

func addTo(idx map[scopedKey]idSet, k scopedKey, id int64) {
	set := idx[k]
	if set == nil {
		set = idSet{}
		idx[k] = set
	}
	set[id] = struct{}{}
}

func removeFrom(idx map[scopedKey]idSet, k scopedKey, id int64) {
	if set := idx[k]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(idx, k)
		}
	}
}

func NewMemory() *Memory {
	return &Memory{
		countries:     map[int64]geo.Country{},
		regions:       map[int64]geo.Region{},
		cities:        map[int64]geo.City{},
		countryByCode: map[string]int64{},
		countryByName: map[string]int64{},
		gids: map[geo.Kind]map[int64]int64{
			geo.KindCountry: {},
			geo.KindRegion:  {},
			geo.KindCity:    {},
		},
		regionByName: map[scopedKey]int64{},
		regionByCode: map[scopedKey]idSet{},
		cityByRegion: map[scopedKey]int64{},
		cityByName:   map[scopedKey]idSet{},
	}
}

// Writes：累计写入次数
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Countries / Regions / Cities：快照，供摘要与测试断言使用
func (m *Memory) Countries() []geo.Country {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]geo.Country, 0, len(m.countries))
	for _, c := range m.countries {
		out = append(out, cloneCountry(c))
	}
	return out
}

func (m *Memory) Regions() []geo.Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]geo.Region, 0, len(m.regions))
	for _, r := range m.regions {
		out = append(out, cloneRegion(r))
	}
	return out
}

func (m *Memory) Cities() []geo.City {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]geo.City, 0, len(m.cities))
	for _, c := range m.cities {
		out = append(out, cloneCity(c))
	}
	return out
}

func cloneBase(b geo.Base) geo.Base {
	if b.GeonameID != nil {
		b.GeonameID = geo.Int64(*b.GeonameID)
	}
	return b
}

func cloneCountry(c geo.Country) geo.Country {
	c.Base = cloneBase(c.Base)
	if c.PhoneCode != nil {
		v := *c.PhoneCode
		c.PhoneCode = &v
	}
	c.Languages = append([]string(nil), c.Languages...)
	return c
}

func cloneRegion(r geo.Region) geo.Region {
	r.Base = cloneBase(r.Base)
	return r
}

func cloneCity(c geo.City) geo.City {
	c.Base = cloneBase(c.Base)
	if c.Latitude != nil {
		v := *c.Latitude
		c.Latitude = &v
	}
	if c.Longitude != nil {
		v := *c.Longitude
		c.Longitude = &v
	}
	if c.RegionID != nil {
		c.RegionID = geo.Int64(*c.RegionID)
	}
	return c
}

// taken：唯一索引中 key 已被 self 以外的记录占用
func taken[K comparable](idx map[K]int64, k K, self int64) bool {
	id, ok := idx[k]
	return ok && id != self
}

func (m *Memory) gidTaken(kind geo.Kind, gid *int64, self int64) bool {
	return gid != nil && taken(m.gids[kind], *gid, self)
}

// reindexGID：摘除旧 geoname_id 并登记新值
func (m *Memory) reindexGID(kind geo.Kind, old, gid *int64, id int64) {
	idx := m.gids[kind]
	if old != nil && idx[*old] == id {
		delete(idx, *old)
	}
	if gid != nil {
		idx[*gid] = id
	}
}

func (m *Memory) CountryByCode(_ context.Context, code2 string) (*geo.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.countryByCode[code2]; ok && code2 != "" {
		out := cloneCountry(m.countries[id])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) CountryByGeonameID(_ context.Context, id int64) (*geo.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rowID, ok := m.gids[geo.KindCountry][id]; ok {
		out := cloneCountry(m.countries[rowID])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) putCountry(c *geo.Country) error {
	if c.Code2 != "" && taken(m.countryByCode, c.Code2, c.ID) {
		return fmt.Errorf("country code2 %q already exists", c.Code2)
	}
	if taken(m.countryByName, c.Name, c.ID) {
		return fmt.Errorf("country name %q already exists", c.Name)
	}
	if m.gidTaken(geo.KindCountry, c.GeonameID, c.ID) {
		return fmt.Errorf("country geoname_id %d already exists", *c.GeonameID)
	}
	if old, ok := m.countries[c.ID]; ok {
		if old.Code2 != "" {
			delete(m.countryByCode, old.Code2)
		}
		delete(m.countryByName, old.Name)
		m.reindexGID(geo.KindCountry, old.GeonameID, nil, c.ID)
	}
	if c.Code2 != "" {
		m.countryByCode[c.Code2] = c.ID
	}
	m.countryByName[c.Name] = c.ID
	m.reindexGID(geo.KindCountry, nil, c.GeonameID, c.ID)
	m.countries[c.ID] = cloneCountry(*c)
	m.writes++
	return nil
}

func (m *Memory) CreateCountry(_ context.Context, c *geo.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if err := m.putCountry(c); err != nil {
		c.ID = 0
		return err
	}
	return nil
}

func (m *Memory) UpdateCountry(_ context.Context, c *geo.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.countries[c.ID]; !ok {
		return geo.ErrNotFound
	}
	return m.putCountry(c)
}

func (m *Memory) CountCountries(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.countries), nil
}

func (m *Memory) RegionByGeonameID(_ context.Context, id int64) (*geo.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rowID, ok := m.gids[geo.KindRegion][id]; ok {
		out := cloneRegion(m.regions[rowID])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) RegionByName(_ context.Context, countryID int64, name string) (*geo.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.regionByName[scopedKey{countryID, name}]; ok {
		out := cloneRegion(m.regions[id])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) RegionByCode(_ context.Context, countryID int64, code string) (*geo.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.regionByCode[scopedKey{countryID, code}].min(); ok {
		out := cloneRegion(m.regions[id])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) putRegion(r *geo.Region) error {
	if _, ok := m.countries[r.CountryID]; !ok {
		return fmt.Errorf("region %q: country %d does not exist", r.Name, r.CountryID)
	}
	if taken(m.regionByName, scopedKey{r.CountryID, r.Name}, r.ID) {
		return fmt.Errorf("region %q already exists in country %d", r.Name, r.CountryID)
	}
	if m.gidTaken(geo.KindRegion, r.GeonameID, r.ID) {
		return fmt.Errorf("region geoname_id %d already exists", *r.GeonameID)
	}
	if old, ok := m.regions[r.ID]; ok {
		delete(m.regionByName, scopedKey{old.CountryID, old.Name})
		removeFrom(m.regionByCode, scopedKey{old.CountryID, old.GeonameCode}, r.ID)
		m.reindexGID(geo.KindRegion, old.GeonameID, nil, r.ID)
	}
	m.regionByName[scopedKey{r.CountryID, r.Name}] = r.ID
	addTo(m.regionByCode, scopedKey{r.CountryID, r.GeonameCode}, r.ID)
	m.reindexGID(geo.KindRegion, nil, r.GeonameID, r.ID)
	m.regions[r.ID] = cloneRegion(*r)
	m.writes++
	return nil
}

func (m *Memory) CreateRegion(_ context.Context, r *geo.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if err := m.putRegion(r); err != nil {
		r.ID = 0
		return err
	}
	return nil
}

func (m *Memory) UpdateRegion(_ context.Context, r *geo.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[r.ID]; !ok {
		return geo.ErrNotFound
	}
	return m.putRegion(r)
}

func (m *Memory) CityByGeonameID(_ context.Context, id int64) (*geo.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rowID, ok := m.gids[geo.KindCity][id]; ok {
		out := cloneCity(m.cities[rowID])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

// CityByName：优先同行政区的同名城市，其次无行政区的同名城市（最小 id）
func (m *Memory) CityByName(_ context.Context, countryID int64, regionID *int64, name string) (*geo.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if regionID != nil {
		if id, ok := m.cityByRegion[scopedKey{*regionID, name}]; ok && m.cities[id].CountryID == countryID {
			out := cloneCity(m.cities[id])
			return &out, nil
		}
	}
	var fallback int64
	for id := range m.cityByName[scopedKey{countryID, name}] {
		if m.cities[id].RegionID == nil && (fallback == 0 || id < fallback) {
			fallback = id
		}
	}
	if fallback != 0 {
		out := cloneCity(m.cities[fallback])
		return &out, nil
	}
	return nil, geo.ErrNotFound
}

func (m *Memory) putCity(c *geo.City) error {
	if _, ok := m.countries[c.CountryID]; !ok {
		return fmt.Errorf("city %q: country %d does not exist", c.Name, c.CountryID)
	}
	if c.RegionID != nil {
		if _, ok := m.regions[*c.RegionID]; !ok {
			return fmt.Errorf("city %q: region %d does not exist", c.Name, *c.RegionID)
		}
		if taken(m.cityByRegion, scopedKey{*c.RegionID, c.Name}, c.ID) {
			return fmt.Errorf("city %q already exists in region %d", c.Name, *c.RegionID)
		}
	}
	if m.gidTaken(geo.KindCity, c.GeonameID, c.ID) {
		return fmt.Errorf("city geoname_id %d already exists", *c.GeonameID)
	}
	if old, ok := m.cities[c.ID]; ok {
		if old.RegionID != nil {
			delete(m.cityByRegion, scopedKey{*old.RegionID, old.Name})
		}
		removeFrom(m.cityByName, scopedKey{old.CountryID, old.Name}, c.ID)
		m.reindexGID(geo.KindCity, old.GeonameID, nil, c.ID)
	}
	if c.RegionID != nil {
		m.cityByRegion[scopedKey{*c.RegionID, c.Name}] = c.ID
	}
	addTo(m.cityByName, scopedKey{c.CountryID, c.Name}, c.ID)
	m.reindexGID(geo.KindCity, nil, c.GeonameID, c.ID)
	m.cities[c.ID] = cloneCity(*c)
	m.writes++
	return nil
}

func (m *Memory) CreateCity(_ context.Context, c *geo.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if err := m.putCity(c); err != nil {
		c.ID = 0
		return err
	}
	return nil
}

func (m *Memory) UpdateCity(_ context.Context, c *geo.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cities[c.ID]; !ok {
		return geo.ErrNotFound
	}
	return m.putCity(c)
}

func (m *Memory) GeonameIndex(_ context.Context, kind geo.Kind) (map[int64]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[int64]string{}
	switch kind {
	case geo.KindCountry:
		for _, c := range m.countries {
			if c.GeonameID != nil {
				out[*c.GeonameID] = c.Code2
			}
		}
	case geo.KindRegion:
		for _, r := range m.regions {
			if r.GeonameID != nil {
				out[*r.GeonameID] = m.countries[r.CountryID].Code2
			}
		}
	case geo.KindCity:
		for _, c := range m.cities {
			if c.GeonameID != nil {
				out[*c.GeonameID] = m.countries[c.CountryID].Code2
			}
		}
	default:
		return nil, fmt.Errorf("geoname index: unsupported kind %s", kind)
	}
	return out, nil
}

func (m *Memory) EntityByGeonameID(_ context.Context, kind geo.Kind, id int64) (*geo.Base, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rowID, ok := m.gids[kind][id]
	if !ok {
		return nil, geo.ErrNotFound
	}
	var b geo.Base
	switch kind {
	case geo.KindCountry:
		b = cloneBase(m.countries[rowID].Base)
	case geo.KindRegion:
		b = cloneBase(m.regions[rowID].Base)
	case geo.KindCity:
		b = cloneBase(m.cities[rowID].Base)
	}
	return &b, nil
}

func (m *Memory) SetPreferredName(_ context.Context, kind geo.Kind, id int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case geo.KindCountry:
		c, ok := m.countries[id]
		if !ok {
			return geo.ErrNotFound
		}
		c.PreferredName = name
		m.countries[id] = c
	case geo.KindRegion:
		r, ok := m.regions[id]
		if !ok {
			return geo.ErrNotFound
		}
		r.PreferredName = name
		m.regions[id] = r
	case geo.KindCity:
		c, ok := m.cities[id]
		if !ok {
			return geo.ErrNotFound
		}
		c.PreferredName = name
		m.cities[id] = c
	default:
		return fmt.Errorf("set preferred name: unsupported kind %s", kind)
	}
	m.writes++
	return nil
}

var _ geo.Store = (*Memory)(nil)
