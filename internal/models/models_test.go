package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageList_Value(t *testing.T) {
	v, err := ImageList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = ImageList{"data:image/png;base64,AA=="}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["data:image/png;base64,AA=="]`, v)
}

func TestImageList_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want ImageList
	}{
		{"null", nil, ImageList{}},
		{"empty string", "", ImageList{}},
		{"json null", "null", ImageList{}},
		{"string", `["a","b"]`, ImageList{"a", "b"}},
		{"bytes", []byte(`["c"]`), ImageList{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l ImageList
			require.NoError(t, l.Scan(tt.src))
			assert.Equal(t, tt.want, l)
		})
	}

	var l ImageList
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("{not json"))
}

func TestNote_JSONShape(t *testing.T) {
	n := Note{ID: "n1", Title: "t", Type: TextNote, Images: ImageList{}}
	b, err := json.Marshal(n)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"id", "userId", "title", "content", "type", "time", "duration", "images", "isFavorite", "date", "lastModified"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "audioData")
}

func TestNotePatch_Apply(t *testing.T) {
	n := Note{Title: "old", Content: "keep", Images: ImageList{"a"}}
	title := "new"
	fav := true
	images := []string{"a", "b"}

	NotePatch{Title: &title, IsFavorite: &fav, Images: &images}.Apply(&n)

	assert.Equal(t, "new", n.Title)
	assert.Equal(t, "keep", n.Content)
	assert.True(t, n.IsFavorite)
	assert.Equal(t, ImageList{"a", "b"}, n.Images)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: SortByDate, Desc: true}, s)

	s, err = ParseSort("title")
	require.NoError(t, err)
	assert.Equal(t, Sort{Field: SortByTitle}, s)
	assert.Equal(t, "title", s.String())

	s, err = ParseSort("-isFavorite")
	require.NoError(t, err)
	assert.Equal(t, "-isFavorite", s.String())

	_, err = ParseSort("-password_hash")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 2, TotalPages(20, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
	assert.Equal(t, 20, NoteQuery{Page: 3, Limit: 10}.Offset())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "9:05:07 AM", TimeLabel(time.Date(2024, 1, 1, 9, 5, 7, 0, time.UTC)))
	assert.Equal(t, "0:00", DurationLabel(0))
	assert.Equal(t, "0:59", DurationLabel(59))
	assert.Equal(t, "1:00", DurationLabel(60))
	assert.Equal(t, "0:00", DurationLabel(-3))
}

func TestPublicUserOmitsHash(t *testing.T) {
	u := User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$...", Name: "A"}
	b, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "2a$")
}
