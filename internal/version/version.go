package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Version is the build version, overridable at link time.
var Version = "0.1.0"

const (
	latestReleaseURL = "https://api.github.com/repos/studiowebux/pepe/releases/latest"
	checkTimeout     = 5 * time.Second
)

// UserAgent is the default User-Agent header value.
func UserAgent() string {
	return "pepe/" + Version
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate asks GitHub whether a newer release exists. Best-effort:
// callers treat any error as "no update information".
func CheckForUpdate() (available bool, latest string, url string, err error) {
	client := &http.Client{Timeout: checkTimeout}

	req, err := http.NewRequest("GET", latestReleaseURL, nil)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false, "", "", fmt.Errorf("failed to decode response: %w", err)
	}

	latest = strings.TrimPrefix(release.TagName, "v")
	if latest != "" && isNewer(latest, strings.TrimPrefix(Version, "v")) {
		return true, latest, release.HTMLURL, nil
	}
	return false, latest, release.HTMLURL, nil
}

// isNewer compares dotted numeric versions; pre-release and build suffixes
// are ignored ("0.2.0-beta" compares as "0.2.0").
func isNewer(latest, current string) bool {
	a, b := numbers(latest), numbers(current)
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return x > y
		}
	}
	return false
}

func numbers(v string) []int {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, _ := strconv.Atoi(p)
		out = append(out, n)
	}
	return out
}
