package blogservice

import (
	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	authorsNotExistMsg  = "authors do not exist"
	ownerActionMsg      = "owner could not be added to or removed from authors"
	authorsAddedMsg     = "authors have already been added"
	authorsNotInBlogMsg = "authors do not exist in the blog"
	authorsField        = "authors"
)

type authorOp int

const (
	addAuthors authorOp = iota
	removeAuthors
)

func filterNames(candidates []string, keep func(string) bool) []string {
	var out []string
	for _, name := range candidates {
		if keep(name) {
			out = append(out, name)
		}
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// onlyExistingUsers keeps the candidates that resolve to an account.
func onlyExistingUsers(candidates []string, existing map[string]int) ([]string, error) {
	out := filterNames(candidates, func(name string) bool {
		_, ok := existing[name]
		return ok
	})
	if len(out) == 0 {
		return nil, common.FieldError(common.ErrRecordNotFound, authorsField, authorsNotExistMsg)
	}
	return out, nil
}

// exceptOwner drops the blog owner, who is always an author.
func exceptOwner(owner string, candidates []string) ([]string, error) {
	out := filterNames(candidates, func(name string) bool { return name != owner })
	if len(out) == 0 {
		return nil, common.FieldError(common.ErrEmptyResult, authorsField, ownerActionMsg)
	}
	return out, nil
}

// exceptAuthors drops names that are already authors.
func exceptAuthors(authors, candidates []string) ([]string, error) {
	out := filterNames(candidates, func(name string) bool { return !contains(authors, name) })
	if len(out) == 0 {
		return nil, common.FieldError(common.ErrEmptyResult, authorsField, authorsAddedMsg)
	}
	return out, nil
}

// onlyAuthors keeps names that are authors.
func onlyAuthors(authors, candidates []string) ([]string, error) {
	out := filterNames(candidates, func(name string) bool { return contains(authors, name) })
	if len(out) == 0 {
		return nil, common.FieldError(common.ErrEmptyResult, authorsField, authorsNotInBlogMsg)
	}
	return out, nil
}

// validateAuthorChange runs the guards in order and returns the names the
// operation should apply to. The first guard that empties the list wins.
func validateAuthorChange(op authorOp, blog *Blog, candidates []string, existing map[string]int) ([]string, error) {
	names, err := onlyExistingUsers(candidates, existing)
	if err != nil {
		return nil, err
	}

	names, err = exceptOwner(blog.Owner, names)
	if err != nil {
		return nil, err
	}

	switch op {
	case addAuthors:
		return exceptAuthors(blog.Authors, names)
	default:
		return onlyAuthors(blog.Authors, names)
	}
}
