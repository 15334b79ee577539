package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"
)

const (
	// 目标平台的发文上限，以及给 "分隔符+深链" 固定保留的字符数
	platformCharLimit = 280
	promoLinkReserve  = 80
	promoSeparator    = "\n\n"

	// 全局发布闸门：滚动窗口内最多发一条
	publishCooldown = time.Hour

	candidatePoolSize = 5
	candidateWindow   = 24 * time.Hour
	maxRecentPosts    = 5
)

// PromoService 推广文案生成周期：
// 起草 → (工具查询)* → 校验 → 通过则拼链接发布，任何一步不达标整轮放弃
type PromoService struct {
	store     port.Repository
	appraiser port.Appraiser
	poster    port.Poster
	guard     *common.CooldownGuard
	baseURL   string

	// 单飞标志：上一轮还没跑完时新触发直接跳过，不排队
	inFlight atomic.Bool

	mu          sync.Mutex
	recentPosts []string
}

// NewPromoService 创建文案服务；guard 由组装入口注入，多个触发面共用
func NewPromoService(store port.Repository, appraiser port.Appraiser, poster port.Poster, guard *common.CooldownGuard, baseURL string) *PromoService {
	return &PromoService{
		store:     store,
		appraiser: appraiser,
		poster:    poster,
		guard:     guard,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// RunCycle 跑一轮文案生成。生成失败只记日志，对终端用户静默
func (p *PromoService) RunCycle(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		fmt.Println("⏭️ 上一轮文案生成还在进行，本次触发跳过")
		return nil
	}
	defer p.inFlight.Store(false)

	if !p.guard.TryAcquire("promo", "global", publishCooldown) {
		fmt.Println("⏭️ 发布冷却中，本轮跳过")
		return nil
	}

	candidates, err := p.store.TopRecent(ctx, candidatePoolSize, candidateWindow)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("📭 近期没有可推广的分析结果")
		return nil
	}

	budget := platformCharLimit - promoLinkReserve
	draft, err := p.appraiser.DraftPromo(ctx, &port.DraftRequest{
		Candidates:  candidates,
		RecentPosts: p.snapshotRecent(),
		CharBudget:  budget,
	}, NewPromoTools(p.store))
	if err != nil {
		return err
	}

	winner, err := ValidateDraft(draft, candidates, budget)
	if err != nil {
		// 校验不过就放弃本轮，不再重试
		log.Printf("🚫 文案被拒: %v", err)
		return nil
	}

	message := draft + promoSeparator + p.DeepLink(winner.RepoFullName)
	if utf8.RuneCountInString(message) > platformCharLimit {
		log.Printf("🚫 拼上链接后超出平台上限 (%d 字符)，丢弃", utf8.RuneCountInString(message))
		return nil
	}

	if err := p.poster.Post(ctx, message); err != nil {
		return err
	}

	p.recordPost(draft)
	fmt.Printf("📣 已发布推广文案，主推 %s\n", winner.RepoFullName)
	return nil
}

// ValidateDraft 按顺序做三道硬校验：非空 → 长度 → 必须点名某个候选仓库
// 通过时返回被点名的候选（按排名取第一个命中的）
func ValidateDraft(draft string, candidates []*domain.Analysis, budget int) (*domain.Analysis, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, common.NewError(common.ErrCodeRejected, "文案为空")
	}

	if n := utf8.RuneCountInString(draft); n > budget {
		return nil, common.NewError(common.ErrCodeRejected,
			fmt.Sprintf("文案 %d 字符，超出预算 %d", n, budget))
	}

	lower := strings.ToLower(draft)
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c.RepoFullName)) {
			return c, nil
		}
	}
	return nil, common.NewError(common.ErrCodeRejected, "文案没有点名任何候选仓库")
}

// DeepLink 生成分析详情页的深链
func (p *PromoService) DeepLink(repoFullName string) string {
	return fmt.Sprintf("%s/analysis?repo=%s", p.baseURL, url.QueryEscape(repoFullName))
}

func (p *PromoService) snapshotRecent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.recentPosts...)
}

func (p *PromoService) recordPost(draft string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recentPosts = append(p.recentPosts, draft)
	if len(p.recentPosts) > maxRecentPosts {
		p.recentPosts = p.recentPosts[len(p.recentPosts)-maxRecentPosts:]
	}
}
