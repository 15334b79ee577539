package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
	"github.com/mentallyblue/ai0x-sub000/internal/domain"
	"github.com/mentallyblue/ai0x-sub000/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetRepoMeta(ctx context.Context, fullName string) (*domain.RepoMeta, error) {
	args := m.Called(ctx, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepoMeta), args.Error(1)
}

type MockAppraiser struct {
	mock.Mock
}

func (m *MockAppraiser) Appraise(ctx context.Context, meta *domain.RepoMeta) (string, error) {
	args := m.Called(ctx, meta)
	return args.String(0), args.Error(1)
}

func (m *MockAppraiser) Summarize(ctx context.Context, rawText string) (string, error) {
	args := m.Called(ctx, rawText)
	return args.String(0), args.Error(1)
}

func (m *MockAppraiser) DraftPromo(ctx context.Context, req *port.DraftRequest, tools port.PromoTools) (string, error) {
	args := m.Called(ctx, req, tools)
	return args.String(0), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetFresh(ctx context.Context, repoFullName string, maxAge time.Duration) (*domain.Analysis, error) {
	args := m.Called(ctx, repoFullName, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockRepository) TopRecent(ctx context.Context, limit int, within time.Duration) ([]*domain.Analysis, error) {
	args := m.Called(ctx, limit, within)
	return args.Get(0).([]*domain.Analysis), args.Error(1)
}

func (m *MockRepository) StaleSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Analysis, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]*domain.Analysis), args.Error(1)
}

func (m *MockRepository) SearchByScoreAndTags(ctx context.Context, minScore, minAIScore int, tags []string, limit int) ([]*domain.Analysis, error) {
	args := m.Called(ctx, minScore, minAIScore, tags, limit)
	return args.Get(0).([]*domain.Analysis), args.Error(1)
}

func (m *MockRepository) GetByName(ctx context.Context, repoFullName string) (*domain.Analysis, error) {
	args := m.Called(ctx, repoFullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

func (m *MockRepository) FindSimilar(ctx context.Context, repoFullName string, limit int) ([]*domain.Analysis, error) {
	args := m.Called(ctx, repoFullName, limit)
	return args.Get(0).([]*domain.Analysis), args.Error(1)
}

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) Post(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// 规格里的端到端样例原文：合法性 70，信任 75，最终 73
const endToEndRaw = `## Detailed Scores
Code Quality (Score: 20/25)
Project Structure (Score: 15/25)
Implementation (Score: 25/25)
Documentation (Score: 10/25)

## Red Flags
- Single red flag here

## AI Implementation Analysis
Misleading Level: Low
`

func sampleMeta() *domain.RepoMeta {
	return &domain.RepoMeta{
		FullName:    "owner/project",
		URL:         "https://github.com/owner/project",
		Description: "A test project",
		Stars:       120,
		Language:    "Go",
		Topics:      []string{"ai", "Go"},
	}
}

func TestBuildAnalysis_EndToEnd(t *testing.T) {
	analysis := BuildAnalysis(sampleMeta(), endToEndRaw)

	assert.Equal(t, 20, analysis.CodeQuality)
	assert.Equal(t, 15, analysis.ProjectStructure)
	assert.Equal(t, 25, analysis.Implementation)
	assert.Equal(t, 10, analysis.Documentation)
	assert.Equal(t, 70, analysis.LegitimacyScore)
	assert.Equal(t, 75, analysis.TrustScore) // 100 - 15(红旗) - 10(Low)
	assert.Equal(t, 73, analysis.FinalScore) // round(72.5)
	assert.Equal(t, endToEndRaw, analysis.RawText)

	// 标签小写去重：语言 Go 和 topic Go 合并
	assert.Equal(t, []string{"go", "ai"}, analysis.Tags)
}

func TestBuildAnalysis_Idempotent(t *testing.T) {
	first := BuildAnalysis(sampleMeta(), endToEndRaw)
	second := BuildAnalysis(sampleMeta(), endToEndRaw)
	assert.Equal(t, first, second)
}

func TestAnalyze_CacheHit(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	cached := &domain.Analysis{RepoFullName: "owner/project", FinalScore: 88}
	mockRepo.On("GetFresh", mock.Anything, "owner/project", DefaultFreshWindow).
		Return(cached, nil)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	result, err := svc.Analyze(context.Background(), "owner/project")

	assert.NoError(t, err)
	assert.Equal(t, cached, result)
	// 命中缓存不会碰 GitHub 和 LLM
	mockFetcher.AssertNotCalled(t, "GetRepoMeta", mock.Anything, mock.Anything)
	mockAppraiser.AssertNotCalled(t, "Appraise", mock.Anything, mock.Anything)
}

func TestAnalyze_FreshPipeline(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	mockRepo.On("GetFresh", mock.Anything, "owner/project", DefaultFreshWindow).
		Return(nil, common.ErrNoFreshAnalysis)
	mockFetcher.On("GetRepoMeta", mock.Anything, "owner/project").Return(sampleMeta(), nil)
	mockAppraiser.On("Appraise", mock.Anything, mock.Anything).Return(endToEndRaw, nil)
	mockAppraiser.On("Summarize", mock.Anything, endToEndRaw).Return("一句话简评", nil)
	mockRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.Analysis) bool {
		return a.RepoFullName == "owner/project" &&
			a.LegitimacyScore == 70 && a.TrustScore == 75 && a.FinalScore == 73 &&
			a.Summary == "一句话简评" && !a.LastAnalyzed.IsZero()
	})).Return(nil)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	result, err := svc.Analyze(context.Background(), "owner/project")

	assert.NoError(t, err)
	assert.Equal(t, 73, result.FinalScore)
	mockRepo.AssertExpectations(t)
}

func TestAnalyze_InvalidRepoName(t *testing.T) {
	svc := NewAnalysisService(new(MockFetcher), new(MockAppraiser), new(MockRepository))

	for _, name := range []string{"", "noslash", "a/b/c", "/name", "owner/"} {
		_, err := svc.Analyze(context.Background(), name)
		assert.Error(t, err, name)
		assert.True(t, common.HasCode(err, common.ErrCodeInvalidInput), name)
	}
}

func TestAnalyze_AppraiseErrorPropagates(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	mockRepo.On("GetFresh", mock.Anything, "owner/project", DefaultFreshWindow).
		Return(nil, common.ErrNoFreshAnalysis)
	mockFetcher.On("GetRepoMeta", mock.Anything, "owner/project").Return(sampleMeta(), nil)
	upstream := errors.New("model overloaded")
	mockAppraiser.On("Appraise", mock.Anything, mock.Anything).Return("", upstream)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	_, err := svc.Analyze(context.Background(), "owner/project")

	assert.ErrorIs(t, err, upstream)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAnalyze_SummarizeFailureIsNotFatal(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	mockRepo.On("GetFresh", mock.Anything, "owner/project", DefaultFreshWindow).
		Return(nil, common.ErrNoFreshAnalysis)
	mockFetcher.On("GetRepoMeta", mock.Anything, "owner/project").Return(sampleMeta(), nil)
	mockAppraiser.On("Appraise", mock.Anything, mock.Anything).Return(endToEndRaw, nil)
	mockAppraiser.On("Summarize", mock.Anything, endToEndRaw).Return("", errors.New("quota"))
	mockRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	result, err := svc.Analyze(context.Background(), "owner/project")

	assert.NoError(t, err)
	assert.Equal(t, "", result.Summary)
}

func TestRefreshStale(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	stale := []*domain.Analysis{
		{RepoFullName: "owner/alpha"},
		{RepoFullName: "owner/beta"},
	}
	mockRepo.On("StaleSince", mock.Anything, mock.Anything, sweepBatchSize).Return(stale, nil)

	for _, doc := range stale {
		meta := &domain.RepoMeta{FullName: doc.RepoFullName, Language: "Go"}
		mockFetcher.On("GetRepoMeta", mock.Anything, doc.RepoFullName).Return(meta, nil)
	}
	mockAppraiser.On("Appraise", mock.Anything, mock.Anything).Return(endToEndRaw, nil)
	mockAppraiser.On("Summarize", mock.Anything, endToEndRaw).Return("简评", nil)
	mockRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	svc.SetMaxGoroutines(2)

	err := svc.RefreshStale(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestRefreshStale_SingleFailureDoesNotAbort(t *testing.T) {
	mockFetcher := new(MockFetcher)
	mockAppraiser := new(MockAppraiser)
	mockRepo := new(MockRepository)

	stale := []*domain.Analysis{
		{RepoFullName: "owner/broken"},
		{RepoFullName: "owner/healthy"},
	}
	mockRepo.On("StaleSince", mock.Anything, mock.Anything, sweepBatchSize).Return(stale, nil)

	mockFetcher.On("GetRepoMeta", mock.Anything, "owner/broken").
		Return(nil, errors.New("404"))
	mockFetcher.On("GetRepoMeta", mock.Anything, "owner/healthy").
		Return(&domain.RepoMeta{FullName: "owner/healthy"}, nil)
	mockAppraiser.On("Appraise", mock.Anything, mock.Anything).Return(endToEndRaw, nil)
	mockAppraiser.On("Summarize", mock.Anything, endToEndRaw).Return("简评", nil)
	mockRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.Analysis) bool {
		return a.RepoFullName == "owner/healthy"
	})).Return(nil)

	svc := NewAnalysisService(mockFetcher, mockAppraiser, mockRepo)
	err := svc.RefreshStale(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "Upsert", 1)
}
