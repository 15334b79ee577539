package domain

import "time"

// Analysis 代表一个项目的完整分析结果 (按 repo 全名唯一，upsert 覆盖)
type Analysis struct {
	// 主键："owner/name" 形式的仓库全名
	RepoFullName string `json:"repo_full_name" gorm:"primaryKey"`
	RepoURL      string `json:"repo_url"`
	Description  string `json:"description"`
	Stars        int    `json:"stars"`
	Language     string `json:"language"`

	// LLM 返回的完整原文，保留不动，方便重新解析和问答
	RawText string `json:"raw_text" gorm:"type:text"`

	// --- 四个分项评分 (各 0-25，从原文提取) ---
	CodeQuality      int `json:"code_quality"`
	ProjectStructure int `json:"project_structure"`
	Implementation   int `json:"implementation"`
	Documentation    int `json:"documentation"`

	// 合法性评分 (0-100)：由四个分项推导，入库时缓存，不在读取时重算
	LegitimacyScore int `json:"legitimacy_score"`

	// 信任评分 (0-100)：对风险信号逐条扣分得出
	TrustScore int `json:"trust_score"`

	// 最终对外发布的评分：合法性和信任的四舍五入平均
	FinalScore int `json:"final_score"`

	// AI 实现评分 (0-100)，单独落列，方便按分数查询
	AIScore int `json:"ai_score"`

	// 结构化审查结果 (整体序列化为 JSON 存储)
	Review Review `json:"review" gorm:"serializer:json;type:jsonb"`

	// AI 单独生成的一句话简评
	Summary string `json:"summary" gorm:"type:text"`

	// 标签：语言 + GitHub topics，供工具查询和相似推荐
	Tags []string `json:"tags" gorm:"serializer:json;type:jsonb"`

	// 缓存新鲜度基准时间
	LastAnalyzed time.Time `json:"last_analyzed"`
}

// Review 结构化审查记录，全部来自 LLM 原文的分节提取
type Review struct {
	RedFlags                []string          `json:"red_flags"`
	LarpIndicators          []string          `json:"larp_indicators"`
	MisrepresentationChecks []string          `json:"misrepresentation_checks"`
	LogicFlow               []string          `json:"logic_flow"`
	ProcessArchitecture     []string          `json:"process_architecture"`
	CodeOrganization        []string          `json:"code_organization"`
	CriticalPath            []string          `json:"critical_path"`
	OverallAssessment       string            `json:"overall_assessment"`
	InvestmentRanking       InvestmentRanking `json:"investment_ranking"`
	AIAnalysis              AIAnalysis        `json:"ai_analysis"`
}

// InvestmentRanking 投资评级小节
type InvestmentRanking struct {
	Rating     string   `json:"rating"`
	Confidence int      `json:"confidence"` // 0-100，缺失默认 0
	Reasoning  []string `json:"reasoning"`
}

// MisleadingLevel AI 包装误导程度
type MisleadingLevel string

const (
	MisleadingNone   MisleadingLevel = "None"
	MisleadingLow    MisleadingLevel = "Low"
	MisleadingMedium MisleadingLevel = "Medium"
	MisleadingHigh   MisleadingLevel = "High"
)

// ImplementationQuality AI 实现质量档位
type ImplementationQuality string

const (
	QualityPoor      ImplementationQuality = "Poor"
	QualityBasic     ImplementationQuality = "Basic"
	QualityGood      ImplementationQuality = "Good"
	QualityExcellent ImplementationQuality = "Excellent"
	QualityNA        ImplementationQuality = "N/A"
)

// AIAnalysis AI 实现情况子分析
type AIAnalysis struct {
	HasAI                 bool                  `json:"has_ai"`
	Components            []string              `json:"components"`
	Score                 int                   `json:"score"` // 0-100，缺失默认 0
	MisleadingLevel       MisleadingLevel       `json:"misleading_level"`
	ImplementationQuality ImplementationQuality `json:"implementation_quality"`
	Concerns              []string              `json:"concerns"`
}

// RepoMeta GitHub 仓库元数据，喂给分析 Prompt 用
type RepoMeta struct {
	FullName    string
	URL         string
	Description string
	Stars       int
	Language    string
	Topics      []string
	CreatedAt   time.Time
}

// IsHighConviction 判断是否值得对外推广
func (a *Analysis) IsHighConviction() bool {
	return a.FinalScore >= 70 && len(a.Review.RedFlags) == 0
}
