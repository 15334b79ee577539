package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mentallyblue/ai0x-sub000/internal/domain"
)

// 审查原文里约定的小节标题
const (
	SectionRedFlags       = "Red Flags"
	SectionLarpIndicators = "LARP Indicators"
	SectionMisrepChecks   = "Misrepresentation Checks"
	SectionLogicFlow      = "Logic Flow"
	SectionProcessArch    = "Process Architecture"
	SectionCodeOrg        = "Code Organization"
	SectionCriticalPath   = "Critical Path"
	SectionOverall        = "Overall Assessment"
	SectionInvestment     = "Investment Ranking"
	SectionAIAnalysis     = "AI Implementation Analysis"
)

var (
	confidencePattern = regexp.MustCompile(`(?i)Confidence:\s*(\d+)\s*%`)
	aiScorePattern    = regexp.MustCompile(`(?i)AI Score:\s*(\d+)`)
	misleadingPattern = regexp.MustCompile(`(?i)Misleading Level:\s*(None|Low|Medium|High)`)
	implQualPattern   = regexp.MustCompile(`(?i)Implementation Quality:\s*(Poor|Basic|Good|Excellent)`)
)

// BuildReview 把审查原文组装成结构化 Review，每个字段对应一个命名小节
// 小节缺失就是零值，整个流程不会失败
func BuildReview(raw string) domain.Review {
	return domain.Review{
		RedFlags:                Bullets(Section(raw, SectionRedFlags)),
		LarpIndicators:          Bullets(Section(raw, SectionLarpIndicators)),
		MisrepresentationChecks: Bullets(Section(raw, SectionMisrepChecks)),
		LogicFlow:               Bullets(Section(raw, SectionLogicFlow)),
		ProcessArchitecture:     Bullets(Section(raw, SectionProcessArch)),
		CodeOrganization:        Bullets(Section(raw, SectionCodeOrg)),
		CriticalPath:            Bullets(Section(raw, SectionCriticalPath)),
		OverallAssessment:       Section(raw, SectionOverall),
		InvestmentRanking:       parseInvestmentRanking(Section(raw, SectionInvestment)),
		AIAnalysis:              parseAIAnalysis(Section(raw, SectionAIAnalysis)),
	}
}

// parseInvestmentRanking 提取 Rating/Confidence 行和作为理由的列表项
func parseInvestmentRanking(text string) domain.InvestmentRanking {
	ranking := domain.InvestmentRanking{
		Rating: Line(text, "Rating"),
	}

	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ranking.Confidence = n
		}
	}

	// Rating/Confidence 有时也写成列表项，不能混进理由里
	for _, item := range Bullets(text) {
		lower := strings.ToLower(item)
		if strings.HasPrefix(lower, "rating:") || strings.HasPrefix(lower, "confidence:") {
			continue
		}
		ranking.Reasoning = append(ranking.Reasoning, item)
	}

	return ranking
}

// parseAIAnalysis 提取 AI 实现子分析
// concerns 不是独立小节：从 components 里按关键词 (concern/issue/misleading) 重新归类得来
func parseAIAnalysis(text string) domain.AIAnalysis {
	analysis := domain.AIAnalysis{
		MisleadingLevel:       domain.MisleadingNone,
		ImplementationQuality: domain.QualityNA,
	}

	for _, item := range Bullets(text) {
		lower := strings.ToLower(item)
		if strings.HasPrefix(lower, "ai score:") ||
			strings.HasPrefix(lower, "misleading level:") ||
			strings.HasPrefix(lower, "implementation quality:") {
			continue
		}
		analysis.Components = append(analysis.Components, item)
	}
	analysis.HasAI = len(analysis.Components) > 0

	if m := aiScorePattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			analysis.Score = n
		}
	}
	if m := misleadingPattern.FindStringSubmatch(text); m != nil {
		analysis.MisleadingLevel = domain.MisleadingLevel(canonical(m[1]))
	}
	if m := implQualPattern.FindStringSubmatch(text); m != nil {
		analysis.ImplementationQuality = domain.ImplementationQuality(canonical(m[1]))
	}

	for _, comp := range analysis.Components {
		lower := strings.ToLower(comp)
		if strings.Contains(lower, "concern") ||
			strings.Contains(lower, "issue") ||
			strings.Contains(lower, "misleading") {
			analysis.Concerns = append(analysis.Concerns, comp)
		}
	}

	return analysis
}

// canonical 把大小写不敏感匹配到的档位还原成标准写法 ("low" -> "Low")
func canonical(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
