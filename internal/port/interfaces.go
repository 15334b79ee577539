package port

import (
	"context"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/domain"
)

// Fetcher (侦察兵): 负责从 GitHub 拉取仓库元数据，喂给分析 Prompt
type Fetcher interface {
	GetRepoMeta(ctx context.Context, fullName string) (*domain.RepoMeta, error)
}

// Appraiser (鉴定师): 负责所有 LLM 调用，对外只暴露文本进/文本出
type Appraiser interface {
	// Appraise 对仓库做完整审查，返回带固定小节结构的 Markdown 原文
	Appraise(ctx context.Context, meta *domain.RepoMeta) (string, error)

	// Summarize 对审查原文单独生成一句话简评
	Summarize(ctx context.Context, rawText string) (string, error)

	// DraftPromo 迭代生成推广文案，中途可通过 tools 查询已入库的分析
	DraftPromo(ctx context.Context, req *DraftRequest, tools PromoTools) (string, error)
}

// DraftRequest 一次文案生成的输入
type DraftRequest struct {
	// 候选项目，已按 FinalScore 降序排好，第一个是主推对象
	Candidates []*domain.Analysis

	// 最近发过的文案，塞进上下文防止重复
	RecentPosts []string

	// 正文的硬性字符预算 (平台上限减去链接保留位)
	CharBudget int
}

// PromoTools 文案生成期间模型可调用的查询工具
type PromoTools interface {
	SearchAnalyses(ctx context.Context, minScore, minAIScore int, tags []string, limit int) ([]*domain.Analysis, error)
	GetDetail(ctx context.Context, repoFullName string) (*domain.Analysis, error)
	FindSimilar(ctx context.Context, repoFullName string, limit int) ([]*domain.Analysis, error)
}

// Poster (信使): 把通过校验的文案发到外部渠道
type Poster interface {
	Post(ctx context.Context, text string) error
}

// Repository (仓库管理员): 分析结果的存储和查询
type Repository interface {
	// GetFresh 只在 now - lastAnalyzed < maxAge 时返回文档
	// 不存在和已过期对调用方是同一个信号: common.ErrNoFreshAnalysis
	GetFresh(ctx context.Context, repoFullName string, maxAge time.Duration) (*domain.Analysis, error)

	// Upsert 按仓库全名整体覆盖，不做部分更新
	Upsert(ctx context.Context, analysis *domain.Analysis) error

	// TopRecent 最近 within 时间内的高分文档，按 FinalScore 降序
	TopRecent(ctx context.Context, limit int, within time.Duration) ([]*domain.Analysis, error)

	// StaleSince 需要后台重新分析的过期文档
	StaleSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Analysis, error)

	// 工具查询后端
	SearchByScoreAndTags(ctx context.Context, minScore, minAIScore int, tags []string, limit int) ([]*domain.Analysis, error)
	GetByName(ctx context.Context, repoFullName string) (*domain.Analysis, error)
	FindSimilar(ctx context.Context, repoFullName string, limit int) ([]*domain.Analysis, error)
}
