package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Fetcher 实现了 port.Fetcher 接口
type Fetcher struct {
	client *github.Client
}

// NewFetcher 初始化 GitHub 客户端，token 为空时走匿名限额
func NewFetcher(token string) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Fetcher{client: client}
}

// SplitFullName 校验并拆分 "owner/name" 形式的仓库全名
// 必须恰好一个斜杠，两边非空，否则返回输入校验错误
func SplitFullName(fullName string) (owner, name string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", common.NewError(common.ErrCodeInvalidInput,
			fmt.Sprintf("仓库全名格式错误: %q，应为 owner/name", fullName))
	}
	return parts[0], parts[1], nil
}

// GetRepoMeta 拉取仓库元数据，喂给分析 Prompt
func (f *Fetcher) GetRepoMeta(ctx context.Context, fullName string) (*domain.RepoMeta, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	var repo *github.Repository
	err = common.Do(ctx, func() error {
		var apiErr error
		repo, _, apiErr = f.client.Repositories.Get(ctx, owner, name)
		return apiErr
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(time.Second),
	)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeGitHubAPI,
			fmt.Sprintf("获取仓库 %s 失败", fullName), err)
	}

	return &domain.RepoMeta{
		FullName:    repo.GetFullName(),
		URL:         repo.GetHTMLURL(),
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
		Language:    repo.GetLanguage(),
		Topics:      repo.Topics,
		CreatedAt:   repo.GetCreatedAt().Time,
	}, nil
}
