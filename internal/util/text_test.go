package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("BBQ friday! #bbq #Campus see you there #bbq, #x")
	assert.Equal(t, []string{"bbq", "campus"}, tags)
}

func TestExtractHashtagsNone(t *testing.T) {
	assert.Empty(t, ExtractHashtags("no tags here"))
	assert.Empty(t, ExtractHashtags(""))
}

func TestExtractHashtagsTrimsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"party"}, ExtractHashtags("tonight #party!"))
}

func TestPagination(t *testing.T) {
	limit, offset := Pagination("", "", 30, 100)
	assert.Equal(t, 30, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Pagination("500", "-3", 30, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Pagination("10", "20", 30, 100)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseCSV(" a , b ,"))
	assert.Nil(t, ParseCSV(""))
	assert.Nil(t, ParseCSV(" , "))
}
