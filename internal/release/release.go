package release

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Checker looks up the latest published release of the project on GitHub.
type Checker struct {
	Owner   string
	Repo    string
	BaseURL string
	client  http.Client
}

type Release struct {
	HTMLURL string `json:"html_url"`
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

func NewChecker(owner string, repo string) *Checker {
	return &Checker{
		Owner:   owner,
		Repo:    repo,
		BaseURL: "https://api.github.com",
		client: http.Client{
			Timeout: time.Second * 10,
		},
	}
}

func (c *Checker) Latest() (Release, error) {
	var release Release

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.BaseURL, c.Owner, c.Repo)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return release, err
	}
	req.Header.Add("Accept", "application/vnd.github.v3+json")
	resp, err := c.client.Do(req)
	if err != nil {
		return release, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return release, fmt.Errorf("response status code is '%d' (%s)", resp.StatusCode, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return release, err
	}

	return release, nil
}

// UpdateAvailable reports whether tag names a release newer than current.
func UpdateAvailable(current string, tag string) bool {
	if tag == "" {
		return false
	}
	return semver.Compare("v"+current, "v"+strings.TrimPrefix(tag, "v")) < 0
}
