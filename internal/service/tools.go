package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"
)

// 工具参数的取值范围
const (
	toolLimitDefault = 5
	toolLimitMax     = 25
)

// 触发面共用的按 (命令, 用户) 冷却策略，每种命令独立计时
var CommandCooldowns = map[string]time.Duration{
	"analyze": 2 * time.Minute,
	"detail":  30 * time.Second,
	"similar": 30 * time.Second,
}

// AllowCommand 判断某用户的某个命令现在是否放行；策略由 CommandCooldowns 给定
func AllowCommand(guard *common.CooldownGuard, command, userID string) bool {
	cooldown, ok := CommandCooldowns[command]
	if !ok {
		return true
	}
	return guard.TryAcquire("command:"+command, userID, cooldown)
}

// ValidateRepoFullName 仓库全名必须是 owner/name：恰好一个斜杠，两边非空
func ValidateRepoFullName(repoFullName string) error {
	parts := strings.Split(repoFullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return common.NewError(common.ErrCodeInvalidInput,
			fmt.Sprintf("仓库全名格式错误: %q，应为 owner/name", repoFullName))
	}
	return nil
}

// PromoTools 实现 port.PromoTools：先做输入校验，再转给仓库层
// 校验失败返回描述性错误并中止该次工具调用
type PromoTools struct {
	store port.Repository
}

func NewPromoTools(store port.Repository) *PromoTools {
	return &PromoTools{store: store}
}

func (t *PromoTools) SearchAnalyses(ctx context.Context, minScore, minAIScore int, tags []string, limit int) ([]*domain.Analysis, error) {
	if minScore < 0 || minScore > 100 {
		return nil, common.NewError(common.ErrCodeInvalidInput,
			fmt.Sprintf("min_score 超出范围: %d，应在 0-100", minScore))
	}
	if minAIScore < 0 || minAIScore > 100 {
		return nil, common.NewError(common.ErrCodeInvalidInput,
			fmt.Sprintf("min_ai_score 超出范围: %d，应在 0-100", minAIScore))
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return t.store.SearchByScoreAndTags(ctx, minScore, minAIScore, tags, limit)
}

func (t *PromoTools) GetDetail(ctx context.Context, repoFullName string) (*domain.Analysis, error) {
	if err := ValidateRepoFullName(repoFullName); err != nil {
		return nil, err
	}
	return t.store.GetByName(ctx, repoFullName)
}

func (t *PromoTools) FindSimilar(ctx context.Context, repoFullName string, limit int) ([]*domain.Analysis, error) {
	if err := ValidateRepoFullName(repoFullName); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return t.store.FindSimilar(ctx, repoFullName, limit)
}

// normalizeLimit 缺省给默认值，超上限算非法输入
func normalizeLimit(limit int) (int, error) {
	if limit <= 0 {
		return toolLimitDefault, nil
	}
	if limit > toolLimitMax {
		return 0, common.NewError(common.ErrCodeInvalidInput,
			fmt.Sprintf("limit 超出范围: %d，最大 %d", limit, toolLimitMax))
	}
	return limit, nil
}
