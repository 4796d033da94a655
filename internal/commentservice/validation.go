package commentservice

import (
	"strings"

	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	maxLimit     = 100
	defaultLimit = 10
)

func validateBody(v *common.Validator, body string) {
	v.Check(strings.TrimSpace(body) != "", "body", "must be provided")
	v.Check(v.CheckStringLength(body, 1, 255), "body", "must not be more than 255 characters long")
}

func validateID(v *common.Validator, id int) {
	v.Check(id > 0, "id", "must be a positive integer")
}

func validatePage(v *common.Validator, limit, offset *int) {
	v.Check(*limit >= 0 && *limit <= maxLimit, "limit", "must be between 1 and 100")
	v.Check(*offset >= 0, "offset", "must not be negative")

	if *limit == 0 {
		*limit = defaultLimit
	}
}
