package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// 工具调用轮数上限：靠我们自己的计数器兜底，不指望模型自己收手
const maxToolRounds = 3

type GeminiAppraiser struct {
	client      *genai.Client
	reviewModel *genai.GenerativeModel
	promoModel  *genai.GenerativeModel
	limiter     *rate.Limiter
}

func NewGeminiAppraiser(ctx context.Context, apiKey string) (*GeminiAppraiser, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	reviewModel := client.GenerativeModel("gemini-2.5-flash-lite")

	// 文案模型挂上查询工具，生成时可以翻库里的分析结果
	promoModel := client.GenerativeModel("gemini-2.5-flash-lite")
	promoModel.Tools = []*genai.Tool{promoToolDeclarations()}

	return &GeminiAppraiser{
		client:      client,
		reviewModel: reviewModel,
		promoModel:  promoModel,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Appraise 对仓库做完整审查，要求模型按固定小节结构输出 Markdown
// 返回的是整篇原文，结构化提取交给 parser 包
func (g *GeminiAppraiser) Appraise(ctx context.Context, meta *domain.RepoMeta) (string, error) {
	prompt := fmt.Sprintf(`你是一个严谨的开源项目审查员，需要鉴别项目是否货真价实。请审查以下项目：

项目名称: %s
项目地址: %s
项目描述: %s
Stars: %d  主语言: %s

请输出 Markdown 格式的审查报告，必须包含以下小节标题（逐字一致）：
## Detailed Scores
给出四行评分，格式严格为 "<类别> (Score: n/25)"，类别为
Code Quality / Project Structure / Implementation / Documentation。
## Red Flags
## LARP Indicators
## Misrepresentation Checks
## Logic Flow
## Process Architecture
## Code Organization
## Critical Path
## Overall Assessment
## Investment Ranking
包含 "Rating: <档位>" 和 "Confidence: <n>%%" 两行，以及列表形式的理由。
## AI Implementation Analysis
列表列出 AI 相关组件，外加 "AI Score: <n>"、"Misleading Level: <None|Low|Medium|High>"、
"Implementation Quality: <Poor|Basic|Good|Excellent>" 三行。

除 Overall Assessment 外各小节内容一律用 "- " 开头的列表项。没有发现就留空小节。`,
		meta.FullName, meta.URL, meta.Description, meta.Stars, meta.Language)

	text, err := g.generate(ctx, g.reviewModel, prompt)
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "审查调用失败", err)
	}
	return text, nil
}

// Summarize 对审查原文单独生成一句话简评
func (g *GeminiAppraiser) Summarize(ctx context.Context, rawText string) (string, error) {
	prompt := fmt.Sprintf(`用一句中文概括下面这份项目审查报告的结论，直接输出句子本身：

%s`, truncate(rawText, 4000))

	text, err := g.generate(ctx, g.reviewModel, prompt)
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "简评调用失败", err)
	}
	return strings.TrimSpace(text), nil
}

// DraftPromo 迭代生成推广文案：先给上下文起草，模型要查库就执行工具再续写
// 工具轮数到顶后拿最后一版文本返回，校验是上层的事
func (g *GeminiAppraiser) DraftPromo(ctx context.Context, req *port.DraftRequest, tools port.PromoTools) (string, error) {
	session := g.promoModel.StartChat()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := session.SendMessage(ctx, genai.Text(buildPromoPrompt(req)))
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "文案起草失败", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}

		var parts []genai.Part
		for _, fc := range calls {
			fmt.Printf("   🔧 模型请求工具 %s (第 %d 轮)\n", fc.Name, round+1)
			result := g.dispatchTool(ctx, fc, tools)
			parts = append(parts, genai.FunctionResponse{Name: fc.Name, Response: result})
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", common.WrapError(common.ErrCodeAIProcessing, "文案续写失败", err)
		}
	}

	return strings.TrimSpace(cleanFences(responseText(resp))), nil
}

// generate 单轮文本生成，统一走限流器
func (g *GeminiAppraiser) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("AI 返回内容为空")
	}
	return text, nil
}

// responseText 拼接返回里的所有文本片段
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// functionCalls 取出返回里的全部工具调用请求
func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// cleanFences 去掉模型偶尔包上的 Markdown 代码栅栏
func cleanFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// truncate 按字符数截断，防止 Prompt 里的原文撑爆 Token
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
