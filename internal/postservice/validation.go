package postservice

import (
	"strings"

	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	maxLimit     = 100
	defaultLimit = 10
	maxTags      = 20
)

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must not be more than 255 characters long")
}

func validateBody(v *common.Validator, body string) {
	v.Check(body != "", "body", "must be provided")
}

func validateTags(v *common.Validator, tags []string) {
	v.Check(len(tags) <= maxTags, "tags", "must not contain more than 20 tags")
	for _, tag := range tags {
		v.Check(v.CheckStringLength(tag, 1, 100), "tags", "must be between 1 and 100 characters long")
	}
}

func validateSlug(v *common.Validator, field, slug string) {
	v.Check(slug != "", field, "must be provided")
}

func validateFilter(v *common.Validator, f *Filter) {
	v.Check(f.Limit >= 0 && f.Limit <= maxLimit, "limit", "must be between 1 and 100")
	v.Check(f.Offset >= 0, "offset", "must not be negative")
	if f.DateFrom != nil && f.DateTo != nil {
		v.Check(f.DateFrom.Before(*f.DateTo), "date_to", "must be after date_from")
	}

	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	f.Tags = normalizeTags(f.Tags)
}

// normalizeTags trims names and drops blanks and duplicates, keeping the
// first occurrence.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
