package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/adapter/parser"
	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"
)

// 缓存新鲜度窗口：按需分析 24 小时内直接复用，后台巡检用 1 小时
const (
	DefaultFreshWindow = 24 * time.Hour
	DefaultSweepWindow = time.Hour

	sweepBatchSize = 20
)

// AnalysisService 串起完整的分析流水线：
// 元数据 → LLM 审查原文 → 分节提取 → 评分 → 入库
type AnalysisService struct {
	fetcher   port.Fetcher
	appraiser port.Appraiser
	store     port.Repository

	freshWindow   time.Duration
	sweepWindow   time.Duration
	maxGoroutines int
	nowFunc       func() time.Time
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(fetcher port.Fetcher, appraiser port.Appraiser, store port.Repository) *AnalysisService {
	return &AnalysisService{
		fetcher:       fetcher,
		appraiser:     appraiser,
		store:         store,
		freshWindow:   DefaultFreshWindow,
		sweepWindow:   DefaultSweepWindow,
		maxGoroutines: 3,
		nowFunc:       time.Now, // 便于测试注入当前时间
	}
}

// SetMaxGoroutines 设置后台刷新的最大并发数
func (s *AnalysisService) SetMaxGoroutines(max int) {
	if max > 0 {
		s.maxGoroutines = max
	}
}

// Analyze 对一个仓库做分析：缓存够新鲜直接复用，否则跑完整流水线
func (s *AnalysisService) Analyze(ctx context.Context, repoFullName string) (*domain.Analysis, error) {
	if err := ValidateRepoFullName(repoFullName); err != nil {
		return nil, err
	}

	cached, err := s.store.GetFresh(ctx, repoFullName, s.freshWindow)
	if err == nil {
		fmt.Printf("⏭️ %s 的分析还在新鲜期内，直接复用缓存\n", repoFullName)
		return cached, nil
	}
	if !errors.Is(err, common.ErrNoFreshAnalysis) {
		return nil, err
	}

	return s.analyzeFresh(ctx, repoFullName)
}

// analyzeFresh 跳过缓存强制重新分析；同一仓库内各步骤严格顺序执行
func (s *AnalysisService) analyzeFresh(ctx context.Context, repoFullName string) (*domain.Analysis, error) {
	fmt.Printf("🧠 开始分析 %s...\n", repoFullName)

	meta, err := s.fetcher.GetRepoMeta(ctx, repoFullName)
	if err != nil {
		return nil, err
	}

	rawText, err := s.appraiser.Appraise(ctx, meta)
	if err != nil {
		return nil, err
	}

	// 简评是锦上添花，失败不影响主流程
	summary, err := s.appraiser.Summarize(ctx, rawText)
	if err != nil {
		log.Printf("⚠️ 生成 %s 的简评失败: %v", repoFullName, err)
		summary = ""
	}

	analysis := BuildAnalysis(meta, rawText)
	analysis.Summary = summary
	analysis.LastAnalyzed = s.nowFunc()

	// 整体覆盖写入：新分析完全取代旧评分，绝不部分更新
	if err := s.store.Upsert(ctx, analysis); err != nil {
		return nil, err
	}

	fmt.Printf("✅ %s 分析完成 (合法性 %d, 信任 %d, 最终 %d)\n",
		repoFullName, analysis.LegitimacyScore, analysis.TrustScore, analysis.FinalScore)
	return analysis, nil
}

// BuildAnalysis 对审查原文执行纯解析和评分，不做任何 I/O
// 对同一份原文重复调用结果恒定
func BuildAnalysis(meta *domain.RepoMeta, rawText string) *domain.Analysis {
	scores, matched := parser.ParseDetailedScores(rawText)
	legitimacy := parser.LegitimacyScore(scores, matched)

	review := parser.BuildReview(rawText)
	trust := domain.CalculateTrustScore(&review)

	return &domain.Analysis{
		RepoFullName:     meta.FullName,
		RepoURL:          meta.URL,
		Description:      meta.Description,
		Stars:            meta.Stars,
		Language:         meta.Language,
		RawText:          rawText,
		CodeQuality:      scores.CodeQuality,
		ProjectStructure: scores.ProjectStructure,
		Implementation:   scores.Implementation,
		Documentation:    scores.Documentation,
		LegitimacyScore:  legitimacy,
		TrustScore:       trust,
		FinalScore:       domain.CalculateFinalScore(legitimacy, trust),
		AIScore:          review.AIAnalysis.Score,
		Review:           review,
		Tags:             buildTags(meta),
	}
}

// buildTags 语言 + GitHub topics，统一小写去重
func buildTags(meta *domain.RepoMeta) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range append([]string{meta.Language}, meta.Topics...) {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// refreshWorker 工作协程，逐个重新分析过期文档
func (s *AnalysisService) refreshWorker(
	ctx context.Context,
	jobs <-chan string,
	errs chan<- error,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for repoFullName := range jobs {
		fmt.Printf("   [Worker-%d] 正在刷新 %s...\n", workerID, repoFullName)

		jobCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		_, err := s.analyzeFresh(jobCtx, repoFullName)
		cancel()

		if err != nil {
			fmt.Printf("   [Worker-%d] ❌ %s 刷新失败: %v\n", workerID, repoFullName, err)
			errs <- fmt.Errorf("刷新 %s 失败: %w", repoFullName, err)
			continue
		}
		fmt.Printf("   [Worker-%d] ✅ %s 刷新完成\n", workerID, repoFullName)
	}
}

// RefreshStale 后台巡检：把过期的分析结果并发重新跑一遍
// 同一轮巡检里每个仓库只会入队一次，单条失败不影响其他仓库
func (s *AnalysisService) RefreshStale(ctx context.Context) error {
	cutoff := s.nowFunc().Add(-s.sweepWindow)
	stale, err := s.store.StaleSince(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Println("✅ 巡检完成，没有需要刷新的文档")
		return nil
	}

	fmt.Printf("🔄 开始后台刷新，共 %d 个过期文档，最大并发数: %d\n", len(stale), s.maxGoroutines)

	jobs := make(chan string, len(stale))
	errs := make(chan error, len(stale))

	var wg sync.WaitGroup
	for i := 0; i < s.maxGoroutines; i++ {
		wg.Add(1)
		go s.refreshWorker(ctx, jobs, errs, &wg, i+1)
	}

	for _, doc := range stale {
		jobs <- doc.RepoFullName
	}
	close(jobs)

	wg.Wait()
	close(errs)

	if len(errs) > 0 {
		fmt.Printf("⚠️  共有 %d 个刷新错误:\n", len(errs))
		for err := range errs {
			fmt.Printf("   错误: %v\n", err)
		}
	}

	fmt.Println("✅ 后台刷新完成")
	return nil
}
