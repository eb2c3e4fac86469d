// Package skills derives skill requirements from ticket text. Extraction
// runs once per ticket; every candidate shares the result.
package skills

import (
	"context"
	"sort"
	"strings"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

// Extractor produces the critical/important/nice-to-have skill sets for a
// ticket.
type Extractor interface {
	ExtractSkills(ctx context.Context, text, category string) (models.SkillRequirements, error)
}

// keywordTable maps lowercase trigger words in ticket text to the skill
// they indicate.
var keywordTable = map[string]string{
	"aws":        "aws",
	"s3":         "s3",
	"ec2":        "ec2",
	"lambda":     "aws",
	"kubernetes": "kubernetes",
	"k8s":        "kubernetes",
	"docker":     "docker",
	"container":  "docker",
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"database":   "databases",
	"sql":        "databases",
	"redis":      "redis",
	"network":    "networking",
	"vpn":        "networking",
	"dns":        "networking",
	"firewall":   "networking",
	"linux":      "linux",
	"windows":    "windows",
	"email":      "email systems",
	"outlook":    "email systems",
	"password":   "identity management",
	"login":      "identity management",
	"sso":        "identity management",
	"printer":    "hardware support",
	"laptop":     "hardware support",
	"vpn access": "networking",
	"api":        "api integration",
	"webhook":    "api integration",
	"deploy":     "ci/cd",
	"pipeline":   "ci/cd",
	"monitoring": "observability",
	"grafana":    "observability",
}

// categorySeeds are critical skills implied by the ticket category alone.
var categorySeeds = map[string][]string{
	"network":        {"networking"},
	"hardware":       {"hardware support"},
	"software":       {"troubleshooting"},
	"database":       {"databases"},
	"security":       {"identity management"},
	"cloud":          {"aws"},
	"infrastructure": {"linux"},
}

// KeywordExtractor is the deterministic fallback extractor. It also
// serves as the test double for the LLM path.
type KeywordExtractor struct{}

func (KeywordExtractor) ExtractSkills(ctx context.Context, text, category string) (models.SkillRequirements, error) {
	lower := strings.ToLower(text)

	var req models.SkillRequirements
	req.Critical = append(req.Critical, categorySeeds[strings.ToLower(category)]...)

	seen := make(map[string]struct{})
	for trigger, skill := range keywordTable {
		if _, ok := seen[skill]; ok {
			continue
		}
		if strings.Contains(lower, trigger) {
			seen[skill] = struct{}{}
			req.Important = append(req.Important, skill)
		}
	}

	// Map iteration order is random; sort so extraction is deterministic.
	sort.Strings(req.Important)

	if req.IsEmpty() {
		req.Important = []string{"troubleshooting"}
	}
	return req.Normalize(), nil
}
