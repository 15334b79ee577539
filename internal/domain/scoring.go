package domain

import "strings"

// 信任评分的固定扣分规则
const (
	redFlagPenalty       = 15
	larpPenalty          = 10
	misrepPenalty        = 20
	aiConcernPenalty     = 5
	misleadingLowPenalty = 10
	misleadingMedPenalty = 20
	misleadingHiPenalty  = 30
)

// CalculateTrustScore 从 100 分起步，按风险信号逐条扣分，结果截断在 [0,100]
// 对同一份 Review 重复计算结果恒定，没有任何随机性
func CalculateTrustScore(r *Review) int {
	score := 100

	score -= len(r.RedFlags) * redFlagPenalty
	score -= len(r.LarpIndicators) * larpPenalty

	// 误述检查项只有文案里出现 suspicious/concern 才扣分，其余不计
	for _, check := range r.MisrepresentationChecks {
		lower := strings.ToLower(check)
		if strings.Contains(lower, "suspicious") || strings.Contains(lower, "concern") {
			score -= misrepPenalty
		}
	}

	// 误导程度一次性扣分
	switch r.AIAnalysis.MisleadingLevel {
	case MisleadingLow:
		score -= misleadingLowPenalty
	case MisleadingMedium:
		score -= misleadingMedPenalty
	case MisleadingHigh:
		score -= misleadingHiPenalty
	}

	score -= len(r.AIAnalysis.Concerns) * aiConcernPenalty

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CalculateFinalScore 合法性和信任评分的平均值，0.5 向上取整
func CalculateFinalScore(legitimacy, trust int) int {
	return (legitimacy + trust + 1) / 2
}
