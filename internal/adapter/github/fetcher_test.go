package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mentallyblue/ai0x-sub000/internal/common"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
)

// newTestFetcher 把 go-github 客户端指向本地模拟服务器
func newTestFetcher(serverURL string) *Fetcher {
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(serverURL + "/")
	client.BaseURL = baseURL
	return &Fetcher{client: client}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		input     string
		owner     string
		name      string
		expectErr bool
	}{
		{input: "owner/project", owner: "owner", name: "project"},
		{input: "a/b", owner: "a", name: "b"},
		{input: "noslash", expectErr: true},
		{input: "a/b/c", expectErr: true},
		{input: "/project", expectErr: true},
		{input: "owner/", expectErr: true},
		{input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, err := SplitFullName(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				assert.True(t, common.HasCode(err, common.ErrCodeInvalidInput))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.owner, owner)
				assert.Equal(t, tt.name, name)
			}
		})
	}
}

func TestNewFetcher(t *testing.T) {
	// 有无 token 都要能构造出客户端
	assert.NotNil(t, NewFetcher(""))
	assert.NotNil(t, NewFetcher("ghp_test_token"))
}

func TestFetcher_GetRepoMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/alpha", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"full_name": "owner/alpha",
			"html_url": "https://github.com/owner/alpha",
			"description": "An analysis target",
			"stargazers_count": 420,
			"language": "Go",
			"topics": ["ai", "analysis"],
			"created_at": "2026-01-01T00:00:00Z"
		}`)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	meta, err := fetcher.GetRepoMeta(context.Background(), "owner/alpha")

	assert.NoError(t, err)
	assert.Equal(t, "owner/alpha", meta.FullName)
	assert.Equal(t, "https://github.com/owner/alpha", meta.URL)
	assert.Equal(t, 420, meta.Stars)
	assert.Equal(t, "Go", meta.Language)
	assert.Equal(t, []string{"ai", "analysis"}, meta.Topics)
}

func TestFetcher_GetRepoMeta_InvalidName(t *testing.T) {
	fetcher := NewFetcher("")

	_, err := fetcher.GetRepoMeta(context.Background(), "not-a-repo")

	assert.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeInvalidInput))
}

func TestFetcher_GetRepoMeta_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)
	_, err := fetcher.GetRepoMeta(context.Background(), "owner/ghost")

	assert.Error(t, err)
	assert.True(t, common.HasCode(err, common.ErrCodeGitHubAPI))
}
