package stages

// StageKey — ключ этапа воронки оценки
type StageKey = string

const (
	Artifacts            StageKey = "Artifacts"
	BusinessCase         StageKey = "Business Case"
	Requirements         StageKey = "Requirements"
	SolutionArchitecture StageKey = "Solution/Architecture"
	EffortEstimate       StageKey = "Effort Estimate"
	Quote                StageKey = "Quote"
)

type StageMeta struct {
	Key         StageKey `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

var Stages = []StageMeta{
	{
		Key:         Artifacts,
		Title:       "Artifacts",
		Description: "Collect kickoff materials and ensure at least two reference files.",
	},
	{
		Key:         BusinessCase,
		Title:       "Business Case",
		Description: "Generate and approve the value statement and success metrics.",
	},
	{
		Key:         Requirements,
		Title:       "Requirements",
		Description: "Capture the definitive list of requirements and validation notes.",
	},
	{
		Key:         SolutionArchitecture,
		Title:       "Solution & Architecture",
		Description: "Outline the proposed implementation approach and risks.",
	},
	{
		Key:         EffortEstimate,
		Title:       "Effort Estimate",
		Description: "Produce the WBS, role allocations, and estimates.",
	},
	{
		Key:         Quote,
		Title:       "Quote",
		Description: "Finalize pricing, payment terms, and approvals.",
	},
}

// Order — канонический порядок этапов
var Order = func() []StageKey {
	keys := make([]StageKey, len(Stages))
	for i, s := range Stages {
		keys[i] = s.Key
	}
	return keys
}()

// Index возвращает позицию этапа в каноническом порядке, -1 для неизвестных
func Index(stage string) int {
	for i, key := range Order {
		if key == stage {
			return i
		}
	}
	return -1
}

func IsValid(stage string) bool {
	return Index(stage) >= 0
}

// Next возвращает следующий этап или пустую строку для последнего/неизвестного
func Next(stage string) StageKey {
	idx := Index(stage)
	if idx == -1 || idx == len(Order)-1 {
		return ""
	}
	return Order[idx+1]
}

func IsFinal(stage string) bool {
	return Index(stage) == len(Order)-1
}
