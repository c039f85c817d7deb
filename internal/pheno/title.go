package pheno

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sample titles in the series we target follow a fixed underscore
// grammar: condition_treatment_time_repN_platform, for example
// "CD4mem_act_24h_rep2_U133A".
const titleFieldCount = 5

var (
	timeRe = regexp.MustCompile(`^\d+(min|h|d)$`)
	repRe  = regexp.MustCompile(`^rep(\d+)$`)
)

// TitleFields is the structured form of a sample title. Chip is the
// array name as written in the title, distinct from the archive's
// platform accession.
type TitleFields struct {
	Condition string
	Treatment string
	Time      string
	Replicate int
	Chip      string
}

// ParseTitle splits a free-text sample title by the fixed underscore
// grammar. A title that does not conform is an error, not a silently
// malformed row.
func ParseTitle(title string) (TitleFields, error) {
	parts := strings.Split(title, "_")
	if len(parts) != titleFieldCount {
		return TitleFields{}, fmt.Errorf("title %q: expected %d underscore-separated fields, got %d",
			title, titleFieldCount, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return TitleFields{}, fmt.Errorf("title %q: empty field at position %d", title, i+1)
		}
	}

	if !timeRe.MatchString(parts[2]) {
		return TitleFields{}, fmt.Errorf("title %q: %q is not a time field (want e.g. 24h, 30min, 7d)",
			title, parts[2])
	}

	m := repRe.FindStringSubmatch(parts[3])
	if m == nil {
		return TitleFields{}, fmt.Errorf("title %q: %q is not a replicate field (want repN)", title, parts[3])
	}
	rep, err := strconv.Atoi(m[1])
	if err != nil || rep < 1 {
		return TitleFields{}, fmt.Errorf("title %q: bad replicate index %q", title, parts[3])
	}

	return TitleFields{
		Condition: parts[0],
		Treatment: parts[1],
		Time:      parts[2],
		Replicate: rep,
		Chip:      parts[4],
	}, nil
}
