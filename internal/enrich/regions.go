package enrich

import (
	"sort"
	"strings"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

// RegionProfile is the set of regulatory tags a region cares about. A tag
// ending in "*" matches by prefix.
type RegionProfile struct {
	Code string
	Name string
	Tags []string
}

const DefaultRegion = "EU"

var profiles = map[string]RegionProfile{
	"EU": {Code: "EU", Name: "European Union (GDPR)", Tags: []string{"GDPR-*"}},
	"NL": {Code: "NL", Name: "Netherlands (GDPR + UAVG)", Tags: []string{"GDPR-*", rules.TagUAVG}},
	"DE": {Code: "DE", Name: "Germany (GDPR + BDSG)", Tags: []string{"GDPR-*", rules.TagBDSG}},
	"FR": {Code: "FR", Name: "France (GDPR + CNIL)", Tags: []string{"GDPR-*", rules.TagCNIL}},
}

// Profile returns the profile for a region code. Unknown codes fall back to
// the EU profile.
func Profile(code string) RegionProfile {
	if p, ok := profiles[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return p
	}
	return profiles[DefaultRegion]
}

func KnownRegion(code string) bool {
	_, ok := profiles[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Regions lists the supported region codes in order.
func Regions() []string {
	out := make([]string, 0, len(profiles))
	for code := range profiles {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (p RegionProfile) Includes(tag string) bool {
	for _, t := range p.Tags {
		if prefix, ok := strings.CutSuffix(t, "*"); ok {
			if strings.HasPrefix(tag, prefix) {
				return true
			}
			continue
		}
		if t == tag {
			return true
		}
	}
	return false
}

// regionFlags intersects a rule's tags with the profile. Dutch-specific
// rules always carry UAVG.
func regionFlags(r rules.PatternRule, p RegionProfile) []string {
	set := make(map[string]struct{})
	for _, tag := range r.RegionTags {
		if p.Includes(tag) {
			set[tag] = struct{}{}
		}
	}
	if r.Category == models.CategoryDutch {
		set[rules.TagUAVG] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
