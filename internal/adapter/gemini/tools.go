package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"

	"github.com/google/generative-ai-go/genai"
)

// promoToolDeclarations 文案模型可用的三个查询工具
func promoToolDeclarations() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "search_analyses",
				Description: "按最终评分、AI 评分下限和标签搜索已入库的项目分析",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"min_score":    {Type: genai.TypeInteger, Description: "最终评分下限 (0-100)"},
						"min_ai_score": {Type: genai.TypeInteger, Description: "AI 评分下限 (0-100)"},
						"tags": {
							Type:        genai.TypeArray,
							Items:       &genai.Schema{Type: genai.TypeString},
							Description: "标签过滤，留空不过滤",
						},
						"limit": {Type: genai.TypeInteger, Description: "返回条数上限 (1-25)"},
					},
				},
			},
			{
				Name:        "get_analysis_detail",
				Description: "按仓库全名 (owner/name) 取一个项目的完整分析",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"repo": {Type: genai.TypeString, Description: "仓库全名，例如 owner/name"},
					},
					Required: []string{"repo"},
				},
			},
			{
				Name:        "find_similar",
				Description: "找标签重叠且代码质量相近的项目",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"repo":  {Type: genai.TypeString, Description: "仓库全名，例如 owner/name"},
						"limit": {Type: genai.TypeInteger, Description: "返回条数上限 (1-25)"},
					},
					Required: []string{"repo"},
				},
			},
		},
	}
}

// dispatchTool 执行一次工具调用；出错时把错误文本回传给模型，不中断整个会话
func (g *GeminiAppraiser) dispatchTool(ctx context.Context, fc genai.FunctionCall, tools port.PromoTools) map[string]any {
	switch fc.Name {
	case "search_analyses":
		results, err := tools.SearchAnalyses(ctx,
			intArg(fc.Args, "min_score", 0),
			intArg(fc.Args, "min_ai_score", 0),
			stringsArg(fc.Args, "tags"),
			intArg(fc.Args, "limit", 5),
		)
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{"results": summarizeAll(results)}

	case "get_analysis_detail":
		detail, err := tools.GetDetail(ctx, stringArg(fc.Args, "repo"))
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return summarizeAnalysis(detail)

	case "find_similar":
		results, err := tools.FindSimilar(ctx, stringArg(fc.Args, "repo"), intArg(fc.Args, "limit", 5))
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{"results": summarizeAll(results)}

	default:
		return map[string]any{"error": fmt.Sprintf("未知工具: %s", fc.Name)}
	}
}

// buildPromoPrompt 把候选项目压缩视图、最近发过的文案和字符预算拼进 Prompt
func buildPromoPrompt(req *port.DraftRequest) string {
	var sb strings.Builder

	sb.WriteString("你负责为一个开源项目分析平台写推广短文案。以下是近期评分最高的候选项目（按分数降序，第一个是主推对象）：\n\n")

	for i, a := range req.Candidates {
		fmt.Fprintf(&sb, "%d. %s — 最终评分 %d/100 (代码 %d/25, 结构 %d/25, 实现 %d/25, 文档 %d/25)\n",
			i+1, a.RepoFullName, a.FinalScore,
			a.CodeQuality, a.ProjectStructure, a.Implementation, a.Documentation)
		if a.Summary != "" {
			fmt.Fprintf(&sb, "   简评: %s\n", truncate(a.Summary, 200))
		}
		if len(a.Tags) > 0 {
			fmt.Fprintf(&sb, "   标签: %s\n", strings.Join(a.Tags, ", "))
		}
	}

	if len(req.RecentPosts) > 0 {
		sb.WriteString("\n最近已经发过的文案（不要写重复或雷同的内容）：\n")
		for _, post := range req.RecentPosts {
			fmt.Fprintf(&sb, "- %s\n", truncate(post, 120))
		}
	}

	fmt.Fprintf(&sb, `
要求：
1. 文案必须包含主推项目的仓库全名（例如 "%s"），方便读者检索。
2. 正文不超过 %d 个字符，链接由系统追加，不要自己写链接。
3. 需要更多背景可以调用提供的查询工具，但不要反复查询。
4. 直接输出文案本身，不要解释。`,
		firstCandidateName(req), req.CharBudget)

	return sb.String()
}

func firstCandidateName(req *port.DraftRequest) string {
	if len(req.Candidates) == 0 {
		return ""
	}
	return req.Candidates[0].RepoFullName
}

// summarizeAnalysis 工具返回给模型的压缩视图，避免整篇原文撑爆上下文
func summarizeAnalysis(a *domain.Analysis) map[string]any {
	return map[string]any{
		"repo":        a.RepoFullName,
		"final_score": a.FinalScore,
		"legitimacy":  a.LegitimacyScore,
		"trust":       a.TrustScore,
		"ai_score":    a.AIScore,
		"tags":        a.Tags,
		"summary":     truncate(a.Summary, 300),
	}
}

func summarizeAll(analyses []*domain.Analysis) []map[string]any {
	out := make([]map[string]any, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, summarizeAnalysis(a))
	}
	return out
}

// --- 工具参数取值：genai 的 Args 里数字一律是 float64 ---

func intArg(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func stringsArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
