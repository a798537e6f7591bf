package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLineNumber(t *testing.T) {
	doc := "workflows:\n  foo: foo\n  bar: bar\n"
	assert.Equal(t, 2, GetLineNumber(doc, "/workflows/foo"))
	assert.Equal(t, 3, GetLineNumber(doc, "/workflows/bar"))
	assert.Equal(t, 1, GetLineNumber(doc, "/workflows"))
	assert.Equal(t, 1, GetLineNumber(doc, ""))
}

func TestGetLineNumber_Sequences(t *testing.T) {
	doc := `name: Hello
do:
  - emit:
      event: a
  - set:
      name: x
      value: 1
when:
  events:
  - started
  - stopped
`
	cases := map[string]int{
		"/name":              1,
		"/do":                2,
		"/do/0":              3,
		"/do/0/emit":         3,
		"/do/0/emit/event":   4,
		"/do/1/set":          5,
		"/do/1/set/value":    7,
		"/when/events/1":     11,
		"/when/events/9":     9,
		"/do/1/set/missing":  5,
		"/unknown/key/chain": 1,
	}
	for pointer, want := range cases {
		assert.Equal(t, want, GetLineNumber(doc, pointer), pointer)
	}
}

func TestGetLineNumber_SkipsSiblingsAndComments(t *testing.T) {
	doc := `a:
  # comment
  x:
    target: 1
b:
  target: 2
"quoted key":
  'it''s': 3
`
	assert.Equal(t, 6, GetLineNumber(doc, "/b/target"))
	assert.Equal(t, 4, GetLineNumber(doc, "/a/x/target"))
	assert.Equal(t, 1, GetLineNumber(doc, "/a/target"))
	assert.Equal(t, 8, GetLineNumber(doc, "/quoted key/it's"))
}
