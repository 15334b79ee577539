package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 内存过滤查询的分页大小
const scanPageSize = 100

// PostgresRepo 实现了 port.Repository 接口
type PostgresRepo struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 自动迁移：analyses 表不存在就建，字段变了自动补
	if err := db.AutoMigrate(&domain.Analysis{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresRepo{db: db, nowFunc: time.Now}, nil
}

// NewPostgresRepoWithDB 用现成连接构造，测试用
func NewPostgresRepoWithDB(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db, nowFunc: time.Now}
}

// GetFresh 取新鲜的分析结果；不存在和过期返回同一个错误，调用方一律当缓存未命中
func (r *PostgresRepo) GetFresh(ctx context.Context, repoFullName string, maxAge time.Duration) (*domain.Analysis, error) {
	var analysis domain.Analysis
	cutoff := r.nowFunc().Add(-maxAge)

	err := r.db.WithContext(ctx).
		Where("repo_full_name = ? AND last_analyzed > ?", repoFullName, cutoff).
		First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNoFreshAnalysis
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询分析结果失败", err)
	}

	return &analysis, nil
}

// Upsert 按仓库全名整体覆盖写入：新分析完全取代旧的评分字段，绝不部分更新
// 并发重分析同一个仓库时是 last-writer-wins，这里不做串行化
func (r *PostgresRepo) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(analysis).Error
	if err != nil {
		return common.WrapError(common.ErrCodeDatabase, "写入分析结果失败", err)
	}
	return nil
}

// TopRecent 最近 within 时间内的文档，按最终评分降序，供文案生成挑候选
func (r *PostgresRepo) TopRecent(ctx context.Context, limit int, within time.Duration) ([]*domain.Analysis, error) {
	var analyses []*domain.Analysis
	err := r.db.WithContext(ctx).
		Where("last_analyzed > ?", r.nowFunc().Add(-within)).
		Order("final_score DESC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询候选项目失败", err)
	}
	return analyses, nil
}

// StaleSince 取出需要后台刷新的过期文档，最旧的排前面
func (r *PostgresRepo) StaleSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Analysis, error) {
	var analyses []*domain.Analysis
	err := r.db.WithContext(ctx).
		Where("last_analyzed < ?", cutoff).
		Order("last_analyzed ASC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询过期文档失败", err)
	}
	return analyses, nil
}

// SearchByScoreAndTags 按分数下限查询，标签在内存里过滤
// 标签存的是 JSON 列，MVP 阶段不值得上 jsonb 运算符；分页扫描保证排名靠后的匹配行不会漏
func (r *PostgresRepo) SearchByScoreAndTags(ctx context.Context, minScore, minAIScore int, tags []string, limit int) ([]*domain.Analysis, error) {
	query := r.db.WithContext(ctx).
		Where("final_score >= ? AND ai_score >= ?", minScore, minAIScore).
		Order("final_score DESC").
		Session(&gorm.Session{})

	matched, err := scanMatching(query, limit, func(a *domain.Analysis) bool {
		return len(tags) == 0 || hasAnyTag(a.Tags, tags)
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "按分数查询失败", err)
	}
	return matched, nil
}

// GetByName 按仓库全名精确查询
func (r *PostgresRepo) GetByName(ctx context.Context, repoFullName string) (*domain.Analysis, error) {
	var analysis domain.Analysis
	err := r.db.WithContext(ctx).
		Where("repo_full_name = ?", repoFullName).
		First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewError(common.ErrCodeNotFound, fmt.Sprintf("没有 %s 的分析记录", repoFullName))
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询分析结果失败", err)
	}
	return &analysis, nil
}

// FindSimilar 找相似项目：标签有重叠，且代码质量分在 ±5 以内
func (r *PostgresRepo) FindSimilar(ctx context.Context, repoFullName string, limit int) ([]*domain.Analysis, error) {
	base, err := r.GetByName(ctx, repoFullName)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("repo_full_name <> ? AND code_quality BETWEEN ? AND ?",
			repoFullName, base.CodeQuality-5, base.CodeQuality+5).
		Order("final_score DESC").
		Session(&gorm.Session{})

	similar, err := scanMatching(query, limit, func(c *domain.Analysis) bool {
		return hasAnyTag(c.Tags, base.Tags)
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询相似项目失败", err)
	}
	return similar, nil
}

// scanMatching 按页拉取候选行做内存过滤，凑够 limit 条或扫完为止
// 匹配行可能排在任意靠后的位置，不能只看一个固定大小的窗口
func scanMatching(query *gorm.DB, limit int, keep func(*domain.Analysis) bool) ([]*domain.Analysis, error) {
	var matched []*domain.Analysis
	for offset := 0; ; offset += scanPageSize {
		var page []*domain.Analysis
		if err := query.Limit(scanPageSize).Offset(offset).Find(&page).Error; err != nil {
			return nil, err
		}

		for _, a := range page {
			if !keep(a) {
				continue
			}
			matched = append(matched, a)
			if len(matched) >= limit {
				return matched, nil
			}
		}

		// 不满一页说明已经扫到底了
		if len(page) < scanPageSize {
			return matched, nil
		}
	}
}

// hasAnyTag 判断两组标签是否有交集，大小写不敏感
func hasAnyTag(tags, wanted []string) bool {
	for _, t := range tags {
		for _, w := range wanted {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}
