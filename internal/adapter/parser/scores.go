package parser

import (
	"math"
	"regexp"
	"strconv"
)

// DetailedScores 四个分项评分，各 0-25，原文里没写的保持 0
type DetailedScores struct {
	CodeQuality      int
	ProjectStructure int
	Implementation   int
	Documentation    int
}

// 固定的四个类别，匹配 "<Label> (Score: n/25)" 形式，类别名大小写不敏感
var scorePatterns = []struct {
	label   string
	pattern *regexp.Regexp
	assign  func(*DetailedScores, int)
}{
	{"Code Quality", scorePattern("Code Quality"), func(d *DetailedScores, n int) { d.CodeQuality = n }},
	{"Project Structure", scorePattern("Project Structure"), func(d *DetailedScores, n int) { d.ProjectStructure = n }},
	{"Implementation", scorePattern("Implementation"), func(d *DetailedScores, n int) { d.Implementation = n }},
	{"Documentation", scorePattern("Documentation"), func(d *DetailedScores, n int) { d.Documentation = n }},
}

func scorePattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*\(Score:\s*(\d+)\s*/\s*25\)`)
}

// ParseDetailedScores 扫描原文提取四个分项分，返回命中的类别数
// 超出 0-25 的数值照单全收不截断；解析不出数字的命中直接跳过不算
func ParseDetailedScores(raw string) (DetailedScores, int) {
	var scores DetailedScores
	matched := 0

	for _, cat := range scorePatterns {
		m := cat.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cat.assign(&scores, n)
		matched++
	}

	return scores, matched
}

// LegitimacyScore 由分项分推导 0-100 的合法性评分
// 分母只用实际命中的类别数：只写了两个类别的文档按 50 分制折算，不是 100
// 一个类别都没命中时直接给 0
func LegitimacyScore(scores DetailedScores, matched int) int {
	if matched == 0 {
		return 0
	}
	sum := scores.CodeQuality + scores.ProjectStructure + scores.Implementation + scores.Documentation
	return int(math.Round(float64(sum) / float64(25*matched) * 100))
}
