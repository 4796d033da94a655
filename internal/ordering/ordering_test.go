package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/socialnet/internal/common"
)

func testSpec() Spec {
	return Spec{
		Fields: map[string]string{
			"title": "p.title",
			"date":  "p.published_at",
		},
		Composites: map[string]Composite{
			"likes":     Terms("l.likes"),
			"relevance": Terms("l.likes", "p.views", "p.published_at"),
		},
		Default:  []Column{{Expr: "p.published_at", Desc: true}},
		Tiebreak: "p.id",
	}
}

func TestParseKey(t *testing.T) {
	testCases := []struct {
		raw      string
		wantName string
		wantDesc bool
	}{
		{raw: "title", wantName: "title"},
		{raw: "-title", wantName: "title", wantDesc: true},
		{raw: " -date ", wantName: "date", wantDesc: true},
		{raw: "", wantName: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			name, desc := ParseKey(tc.raw)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantDesc, desc)
		})
	}
}

func TestPlan(t *testing.T) {
	testCases := []struct {
		name    string
		keys    []string
		want    string
		wantErr error
	}{
		{
			name: "no keys uses default",
			keys: nil,
			want: "ORDER BY p.published_at DESC NULLS LAST, p.id DESC",
		},
		{
			name: "blank keys use default",
			keys: []string{"", " "},
			want: "ORDER BY p.published_at DESC NULLS LAST, p.id DESC",
		},
		{
			name: "ascending field keeps nulls last",
			keys: []string{"date"},
			want: "ORDER BY p.published_at ASC NULLS LAST, p.id DESC",
		},
		{
			name: "descending field keeps nulls last",
			keys: []string{"-date"},
			want: "ORDER BY p.published_at DESC NULLS LAST, p.id DESC",
		},
		{
			name: "several fields keep their order",
			keys: []string{"-title", "date"},
			want: "ORDER BY p.title DESC NULLS LAST, p.published_at ASC NULLS LAST, p.id DESC",
		},
		{
			name: "descending relevance",
			keys: []string{"-relevance"},
			want: "ORDER BY l.likes DESC NULLS LAST, p.views DESC NULLS LAST, p.published_at DESC NULLS LAST, p.id DESC",
		},
		{
			name: "ascending relevance",
			keys: []string{"relevance"},
			want: "ORDER BY l.likes ASC NULLS LAST, p.views ASC NULLS LAST, p.published_at ASC NULLS LAST, p.id DESC",
		},
		{
			name: "relevance wins over keys before it",
			keys: []string{"title", "-date", "-relevance"},
			want: "ORDER BY l.likes DESC NULLS LAST, p.views DESC NULLS LAST, p.published_at DESC NULLS LAST, p.id DESC",
		},
		{
			name: "first composite wins",
			keys: []string{"-likes", "relevance"},
			want: "ORDER BY l.likes DESC NULLS LAST, p.id DESC",
		},
		{
			name: "composite ignores unknown keys",
			keys: []string{"bogus", "likes"},
			want: "ORDER BY l.likes ASC NULLS LAST, p.id DESC",
		},
		{
			name:    "unknown key",
			keys:    []string{"title", "bogus"},
			wantErr: common.ErrInvalidInput,
		},
	}

	spec := testSpec()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := spec.Plan(tc.keys)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, common.ValidationError{
					Kind:   common.ErrInvalidInput,
					Errors: map[string]string{"ordering": `unknown ordering key "bogus"`},
				}, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.want, plan.OrderBy())
		})
	}
}

func TestPlan_NullsLastEverywhere(t *testing.T) {
	spec := testSpec()
	for _, keys := range [][]string{{"date"}, {"-date"}, {"relevance"}, {"-relevance"}, {"likes"}, {"-likes"}, {"title", "-date"}} {
		plan, err := spec.Plan(keys)
		assert.NoError(t, err)
		for _, c := range plan.Columns {
			assert.Contains(t, c.String(), "NULLS LAST")
		}
	}
}

func TestOrderBy_Empty(t *testing.T) {
	assert.Equal(t, "", Plan{}.OrderBy())
	assert.Equal(t, "ORDER BY id DESC", Plan{Tiebreak: "id"}.OrderBy())
}
