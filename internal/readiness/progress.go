package readiness

import (
	"regexp"
	"strings"
)

// Patterns matched against the model puller's log output. This is best-effort
// scraping of a third party's log format; when nothing matches, a generic
// message is returned instead of failing.
var (
	percentRe = regexp.MustCompile(`(\d{1,3})%`)
	pullingRe = regexp.MustCompile(`pulling [0-9a-f]{6,}`)
)

const genericPullMessage = "model download in progress"

// SummarizePull converts raw model puller log lines into a coarse progress
// message. The last matching line wins, so the newest state is reported.
func SummarizePull(logs string) string {
	summary := genericPullMessage

	for _, line := range strings.Split(logs, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "already exists"):
			summary = "model layers already present"
		case strings.Contains(lower, "pulling manifest"):
			summary = "pulling model manifest"
		case pullingRe.MatchString(lower):
			if m := percentRe.FindStringSubmatch(lower); m != nil {
				summary = "downloading model: " + m[1] + "%"
			} else {
				summary = "downloading model layers"
			}
		case strings.Contains(lower, "verifying sha256"):
			summary = "verifying model digest"
		case strings.Contains(lower, "writing manifest"):
			summary = "writing model manifest"
		case strings.Contains(lower, "success"):
			summary = "model download complete"
		}
	}

	return summary
}
