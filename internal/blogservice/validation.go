package blogservice

import (
	"strings"

	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	maxLimit     = 100
	defaultLimit = 10
)

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must not be more than 255 characters long")
}

func validateDescription(v *common.Validator, description string) {
	v.Check(v.CheckStringLength(description, 0, 2000), "description", "must not be more than 2000 characters long")
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
}

func validateUsernames(v *common.Validator, names []string) {
	v.Check(len(names) > 0, "authors", "must be provided")
	v.Check(len(names) <= 100, "authors", "must not contain more than 100 names")
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
}
