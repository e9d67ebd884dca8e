// Package version checks GitHub for newer snapbench releases.
package version

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// releasesURL is the endpoint for fetching the latest release.
	releasesURL = "https://api.github.com/repos/snapbench/snapbench/releases/latest"
	// requestTimeout bounds the GitHub API request.
	requestTimeout = 10 * time.Second
)

// UpdateInfo describes the latest published release relative to the running
// build.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
	UpdateAvailable bool
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate asks GitHub whether a newer release exists. The check is
// best-effort: network, API and parse failures all return (nil, nil) so a
// benchmark run never fails because GitHub is unreachable. Development
// builds ("dev" or empty) skip the check entirely.
func CheckForUpdate(currentVersion string) (*UpdateInfo, error) {
	return checkForUpdateAt(releasesURL, currentVersion)
}

func checkForUpdateAt(url, currentVersion string) (*UpdateInfo, error) {
	if currentVersion == "dev" || currentVersion == "" {
		return nil, nil
	}

	client := &http.Client{Timeout: requestTimeout}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}
	// GitHub requires a User-Agent
	req.Header.Set("User-Agent", "snapbench-update-checker")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, nil
	}

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.TagName,
		ReleaseURL:      release.HTMLURL,
		UpdateAvailable: isNewer(release.TagName, currentVersion),
	}, nil
}

// isNewer compares two semver-ish strings ("v1.2.3", "1.2.3-beta") and
// reports whether latest is strictly newer than current.
func isNewer(latest, current string) bool {
	lp := parseVersion(latest)
	cp := parseVersion(current)
	for i := 0; i < 3; i++ {
		if lp[i] != cp[i] {
			return lp[i] > cp[i]
		}
	}
	return false
}

func parseVersion(version string) [3]int {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")

	var parts [3]int
	for i, seg := range strings.SplitN(version, ".", 3) {
		if idx := strings.IndexAny(seg, "-+"); idx != -1 {
			seg = seg[:idx]
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			break
		}
		parts[i] = n
	}
	return parts
}
