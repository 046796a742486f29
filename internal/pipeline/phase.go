package pipeline

// Phase：一次运行的阶段
// Idle -> SourcesPending -> Country -> Region -> City -> TranslationImport -> PreferredNameCommit -> Done
// 未开启首选名称时跳过 PreferredNameCommit
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSourcesPending
	PhaseCountryImport
	PhaseRegionImport
	PhaseCityImport
	PhaseTranslationImport
	PhasePreferredNameCommit
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSourcesPending:
		return "sources_pending"
	case PhaseCountryImport:
		return "country_import"
	case PhaseRegionImport:
		return "region_import"
	case PhaseCityImport:
		return "city_import"
	case PhaseTranslationImport:
		return "translation_import"
	case PhasePreferredNameCommit:
		return "preferred_name_commit"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// Progress：进度上报协作者
type Progress interface {
	OnProgress(current, total int)
	OnSourceDone()
}

// sourceBeginner：可选接口，进度实现需要数据源名称时实现
type sourceBeginner interface {
	OnSourceBegin(name string)
}

// NopProgress：默认的空实现
type NopProgress struct{}

func (NopProgress) OnProgress(int, int) {}
func (NopProgress) OnSourceDone()       {}
