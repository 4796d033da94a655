package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/socialnet/internal/common"
)

func TestValidateAuthorChange(t *testing.T) {
	blog := &Blog{Owner: "bob", Authors: []string{"bob", "carol"}}
	existing := map[string]int{"bob": 1, "carol": 2, "dave": 3, "erin": 4}

	testCases := []struct {
		name       string
		op         authorOp
		candidates []string
		want       []string
		wantErr    error
	}{
		{
			name:       "add keeps order and drops unknown users",
			op:         addAuthors,
			candidates: []string{"erin", "ghost", "dave"},
			want:       []string{"erin", "dave"},
		},
		{
			name:       "add skips existing authors",
			op:         addAuthors,
			candidates: []string{"carol", "dave"},
			want:       []string{"dave"},
		},
		{
			name:       "add only unknown users",
			op:         addAuthors,
			candidates: []string{"ghost"},
			wantErr:    common.FieldError(common.ErrRecordNotFound, "authors", authorsNotExistMsg),
		},
		{
			name:       "add nothing",
			op:         addAuthors,
			candidates: nil,
			wantErr:    common.FieldError(common.ErrRecordNotFound, "authors", authorsNotExistMsg),
		},
		{
			name:       "add only the owner",
			op:         addAuthors,
			candidates: []string{"bob", "ghost"},
			wantErr:    common.FieldError(common.ErrEmptyResult, "authors", ownerActionMsg),
		},
		{
			name:       "add only existing authors",
			op:         addAuthors,
			candidates: []string{"carol"},
			wantErr:    common.FieldError(common.ErrEmptyResult, "authors", authorsAddedMsg),
		},
		{
			name:       "remove keeps only authors",
			op:         removeAuthors,
			candidates: []string{"dave", "carol"},
			want:       []string{"carol"},
		},
		{
			name:       "remove the owner",
			op:         removeAuthors,
			candidates: []string{"bob"},
			wantErr:    common.FieldError(common.ErrEmptyResult, "authors", ownerActionMsg),
		},
		{
			name:       "remove non authors",
			op:         removeAuthors,
			candidates: []string{"dave", "erin"},
			wantErr:    common.FieldError(common.ErrEmptyResult, "authors", authorsNotInBlogMsg),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validateAuthorChange(tc.op, blog, tc.candidates, existing)
			assert.Equal(t, tc.wantErr, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGuardsAreOrderPreserving(t *testing.T) {
	got, err := exceptOwner("bob", []string{"zed", "bob", "amy", "kim"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"zed", "amy", "kim"}, got)

	got, err = onlyAuthors([]string{"kim", "zed"}, []string{"zed", "amy", "kim"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"zed", "kim"}, got)
}
