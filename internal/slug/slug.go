// Package slug derives the public identifiers of blogs and posts and checks
// that they stay unique.
package slug

import (
	"context"
	"errors"
	"strconv"

	gosimple "github.com/gosimple/slug"

	"github.com/sushihentaime/socialnet/internal/common"
)

// ErrNotUnique is the message attached to the title field when a derived
// slug is already taken.
const ErrNotUnique = "the same entity has already been created"

// Generate joins the two parts with a hyphen and transliterates the result
// into a lowercase URL-safe token. Cyrillic and other non-Latin scripts are
// mapped to Latin approximations.
func Generate(first, second string) string {
	return gosimple.Make(first + "-" + second)
}

// ForBlog returns the slug of a blog owned by owner.
func ForBlog(owner, title string) string {
	return Generate(owner, title)
}

// ForPost returns the slug of a post. The second part is the parent blog id
// in lowercase hex, so renaming the blog never changes its post slugs.
func ForPost(title string, blogID int) string {
	return Generate(title, strconv.FormatInt(int64(blogID), 16))
}

// Finder resolves a slug to the id of the record that holds it. It returns
// common.ErrRecordNotFound when the slug is free.
type Finder interface {
	FindIDBySlug(ctx context.Context, slug string) (int, error)
}

// CheckUnique fails with a Conflict attributed to "title" when candidate is
// held by a record other than selfID. Pass selfID 0 on create.
func CheckUnique(ctx context.Context, f Finder, candidate string, selfID int) error {
	id, err := f.FindIDBySlug(ctx, candidate)
	if err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if selfID != 0 && id == selfID {
		return nil
	}

	return Conflict()
}

// Conflict is the error returned for a taken slug, also used when the
// unique index catches a collision the check missed.
func Conflict() error {
	return common.FieldError(common.ErrConflict, "title", ErrNotUnique)
}
