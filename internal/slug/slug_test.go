package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/socialnet/internal/common"
)

func TestGenerate(t *testing.T) {
	testCases := []struct {
		name   string
		first  string
		second string
		want   string
	}{
		{name: "latin", first: "alice", second: "My Travel Blog", want: "alice-my-travel-blog"},
		{name: "punctuation", first: "alice", second: "Hello, World!", want: "alice-hello-world"},
		{name: "cyrillic title", first: "bob", second: "Заметки", want: "bob-zametki"},
		{name: "cyrillic both parts", first: "Привет мир", second: "1f", want: "privet-mir-1f"},
		{name: "upper case", first: "ALICE", second: "NEWS", want: "alice-news"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Generate(tc.first, tc.second)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Generate(tc.first, tc.second), "generation must be deterministic")
		})
	}
}

func TestForPost(t *testing.T) {
	testCases := []struct {
		title  string
		blogID int
		want   string
	}{
		{title: "Hello", blogID: 1, want: "hello-1"},
		{title: "Hello", blogID: 255, want: "hello-ff"},
		{title: "Hello", blogID: 4096, want: "hello-1000"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, ForPost(tc.title, tc.blogID))
		})
	}
}

func TestForBlog(t *testing.T) {
	assert.Equal(t, "alice-travel", ForBlog("alice", "Travel"))
}

type mapFinder map[string]int

func (m mapFinder) FindIDBySlug(_ context.Context, slug string) (int, error) {
	id, ok := m[slug]
	if !ok {
		return 0, common.ErrRecordNotFound
	}
	return id, nil
}

type brokenFinder struct{}

func (brokenFinder) FindIDBySlug(context.Context, string) (int, error) {
	return 0, errors.New("connection reset")
}

func TestCheckUnique(t *testing.T) {
	finder := mapFinder{"alice-travel": 7}

	testCases := []struct {
		name      string
		finder    Finder
		candidate string
		selfID    int
		wantErr   error
	}{
		{name: "create with free slug", finder: finder, candidate: "alice-food", selfID: 0},
		{name: "create with taken slug", finder: finder, candidate: "alice-travel", selfID: 0, wantErr: common.ErrConflict},
		{name: "update keeps own slug", finder: finder, candidate: "alice-travel", selfID: 7},
		{name: "update to other record's slug", finder: finder, candidate: "alice-travel", selfID: 8, wantErr: common.ErrConflict},
		{name: "update to free slug", finder: finder, candidate: "alice-food", selfID: 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckUnique(context.Background(), tc.finder, tc.candidate, tc.selfID)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.wantErr)
			var verr common.ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Equal(t, map[string]string{"title": ErrNotUnique}, verr.Errors)
		})
	}

	t.Run("lookup failure propagates", func(t *testing.T) {
		err := CheckUnique(context.Background(), brokenFinder{}, "x", 0)
		assert.EqualError(t, err, "connection reset")
	})
}
