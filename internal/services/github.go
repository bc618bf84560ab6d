package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"aihiring/candidate-pipeline/internal/pipeline"
)

// RepoFetcherService resolves a GitHub repository reference into a single
// code artifact for the evaluation stage. It walks the contents API and
// concatenates text files under a total size cap.
type RepoFetcherService struct {
	httpClient    *http.Client
	token         string
	apiBaseURL    string
	maxTotalBytes int
}

func NewRepoFetcherService(token string) *RepoFetcherService {
	return &RepoFetcherService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		token:         token,
		apiBaseURL:    "https://api.github.com",
		maxTotalBytes: maxCodeChars,
	}
}

type repoRef struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
}

type contentNode struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

// skipped file extensions: binary or generated assets with no evaluation value
var skippedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".exe": true,
	".so": true, ".dll": true, ".bin": true, ".mp4": true, ".mp3": true,
	".woff": true, ".woff2": true, ".ttf": true, ".lock": true,
}

// FetchRepository downloads all text files from the referenced repository
// and returns them as one artifact with per-file path headers.
func (s *RepoFetcherService) FetchRepository(ctx context.Context, repoURL string) (string, error) {
	ref, err := parseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	log.Printf("📥 Fetching repository %s/%s (branch %s)...\n", ref.Owner, ref.Repo, ref.Branch)

	var builder strings.Builder
	fetched := 0

	var walk func(path string) error
	walk = func(path string) error {
		nodes, err := s.listContents(ctx, ref, path)
		if err != nil {
			return err
		}

		for _, node := range nodes {
			if builder.Len() >= s.maxTotalBytes {
				return nil
			}

			switch node.Type {
			case "file":
				if skippedExtensions[strings.ToLower(filepath.Ext(node.Name))] {
					continue
				}
				content, err := s.downloadFile(ctx, node.DownloadURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(&builder, "=== %s ===\n%s\n\n", node.Path, content)
				fetched++
			case "dir":
				if err := walk(node.Path); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(ref.Path); err != nil {
		return "", err
	}

	if fetched == 0 {
		return "", pipeline.NewPermanentError("github", fmt.Errorf("no usable files found in %s", repoURL))
	}

	log.Printf("✅ Fetched %d files from repository\n", fetched)

	code := builder.String()
	if len(code) > s.maxTotalBytes {
		code = code[:s.maxTotalBytes]
	}
	return code, nil
}

func (s *RepoFetcherService) listContents(ctx context.Context, ref repoRef, path string) ([]contentNode, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		s.apiBaseURL, ref.Owner, ref.Repo, path, ref.Branch)

	body, err := s.get(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	// A file path returns a single object, a directory returns a list.
	var nodes []contentNode
	if err := json.Unmarshal(body, &nodes); err != nil {
		var single contentNode
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, pipeline.NewPermanentError("github", fmt.Errorf("unexpected contents response for %s", path))
		}
		nodes = []contentNode{single}
	}

	return nodes, nil
}

func (s *RepoFetcherService) downloadFile(ctx context.Context, rawURL string) (string, error) {
	body, err := s.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *RepoFetcherService) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, pipeline.NewPermanentError("github", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "candidate-pipeline")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, pipeline.NewTransientError("github", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, pipeline.NewTransientError("github",
			fmt.Errorf("request rate-limited or forbidden (status %d)", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, pipeline.NewPermanentError("github",
			fmt.Errorf("repository or path not found"))
	case resp.StatusCode >= 500:
		return nil, pipeline.NewTransientError("github",
			fmt.Errorf("server error (status %d)", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, pipeline.NewPermanentError("github",
			fmt.Errorf("request failed (status %d)", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.maxTotalBytes)+1))
	if err != nil {
		return nil, pipeline.NewTransientError("github", err)
	}
	return body, nil
}

// parseRepoURL accepts https://github.com/owner/repo and the
// /tree/branch/path form.
func parseRepoURL(repoURL string) (repoRef, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || parsed.Host != "github.com" {
		return repoRef{}, pipeline.NewValidationError("invalid GitHub repository URL: %s", repoURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return repoRef{}, pipeline.NewValidationError("invalid GitHub repository URL: %s", repoURL)
	}

	ref := repoRef{
		Owner:  parts[0],
		Repo:   parts[1],
		Branch: "main",
	}

	if len(parts) >= 4 && parts[2] == "tree" {
		ref.Branch = parts[3]
		ref.Path = strings.Join(parts[4:], "/")
	}

	return ref, nil
}
