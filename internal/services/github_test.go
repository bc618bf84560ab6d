package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aihiring/candidate-pipeline/internal/pipeline"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    repoRef
		wantErr bool
	}{
		{
			name: "plain repo",
			url:  "https://github.com/octocat/hello-world",
			want: repoRef{Owner: "octocat", Repo: "hello-world", Branch: "main"},
		},
		{
			name: "trailing slash",
			url:  "https://github.com/octocat/hello-world/",
			want: repoRef{Owner: "octocat", Repo: "hello-world", Branch: "main"},
		},
		{
			name: "tree with branch",
			url:  "https://github.com/octocat/hello-world/tree/develop",
			want: repoRef{Owner: "octocat", Repo: "hello-world", Branch: "develop"},
		},
		{
			name: "tree with branch and path",
			url:  "https://github.com/octocat/hello-world/tree/develop/src/api",
			want: repoRef{Owner: "octocat", Repo: "hello-world", Branch: "develop", Path: "src/api"},
		},
		{name: "wrong host", url: "https://gitlab.com/octocat/hello-world", wantErr: true},
		{name: "missing repo", url: "https://github.com/octocat", wantErr: true},
		{name: "not a url", url: "://broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := parseRepoURL(tt.url)
			if tt.wantErr {
				var verr *pipeline.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}

func newTestRepoFetcher(serverURL string) *RepoFetcherService {
	return &RepoFetcherService{
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		apiBaseURL:    serverURL,
		maxTotalBytes: maxCodeChars,
	}
}

func TestFetchRepository_ConcatenatesFiles(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/hello-world/contents/":
			fmt.Fprintf(w, `[
				{"type":"file","name":"main.go","path":"main.go","size":20,"download_url":"%s/raw/main.go"},
				{"type":"file","name":"logo.png","path":"logo.png","size":1000,"download_url":"%s/raw/logo.png"},
				{"type":"dir","name":"internal","path":"internal"}
			]`, server.URL, server.URL)
		case "/repos/octocat/hello-world/contents/internal":
			fmt.Fprintf(w, `[
				{"type":"file","name":"api.go","path":"internal/api.go","size":20,"download_url":"%s/raw/api.go"}
			]`, server.URL)
		case "/raw/main.go":
			fmt.Fprint(w, "package main")
		case "/raw/api.go":
			fmt.Fprint(w, "package internal")
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	code, err := svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	require.NoError(t, err)
	assert.Contains(t, code, "=== main.go ===\npackage main")
	assert.Contains(t, code, "=== internal/api.go ===\npackage internal")
	assert.NotContains(t, code, "logo.png")
}

func TestFetchRepository_NoUsableFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"logo.png","path":"logo.png","size":10,"download_url":"unused"}]`)
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	_, err := svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
}

func TestFetchRepository_NotFoundIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	_, err := svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	require.Error(t, err)
	assert.False(t, pipeline.IsTransient(err))
}

func TestFetchRepository_RateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	_, err := svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestFetchRepository_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	_, err := svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	require.Error(t, err)
	assert.True(t, pipeline.IsTransient(err))
}

func TestFetchRepository_SendsAuthToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	svc := newTestRepoFetcher(server.URL)
	svc.token = "ghp_test"
	_, _ = svc.FetchRepository(context.Background(), "https://github.com/octocat/hello-world")

	assert.Equal(t, "Bearer ghp_test", gotAuth)
}
