package mcpservice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentsAccessors(t *testing.T) {
	args := Arguments{
		"title": "hello",
		"count": float64(3),
		"ratio": "0.25",
		"done":  true,
		"user":  map[string]any{"name": "ada"},
		"tags":  []any{"a", "b"},
	}
	assert.True(t, args.Has("title"))
	assert.False(t, args.Has("missing"))
	assert.Equal(t, "hello", args.String("title"))
	assert.Equal(t, 3, args.Int("count"))
	assert.Equal(t, int64(3), args.Int64("count"))
	assert.Equal(t, 0.25, args.Float("ratio"))
	assert.True(t, args.Bool("done"))
	assert.Equal(t, "ada", args.Object("user").String("name"))
	assert.Equal(t, []any{"a", "b"}, args.Slice("tags"))
	assert.Equal(t, []string{"a", "b"}, args.Strings("tags"))
	assert.Equal(t, "", args.String("missing"))
	assert.Equal(t, 0, args.Int("missing"))
}

func TestArgumentsDecode(t *testing.T) {
	var out struct {
		Title string   `json:"title"`
		Count int      `json:"count"`
		Tags  []string `json:"tags,omitempty"`
		User  struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	args := Arguments{
		"title": "hello",
		"count": float64(3),
		"tags":  []any{"a"},
		"user":  map[string]any{"name": "ada"},
	}
	require.NoError(t, args.Decode(&out))
	assert.Equal(t, "hello", out.Title)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, []string{"a"}, out.Tags)
	assert.Equal(t, "ada", out.User.Name)
}

func TestArgumentsJSONNumbers(t *testing.T) {
	args := Arguments{"big": json.Number("9007199254740993"), "ratio": json.Number("0.5")}
	assert.Equal(t, int64(9007199254740993), args.Int64("big"))
	assert.Equal(t, "9007199254740993", args.String("big"))
	assert.Equal(t, 0.5, args.Float("ratio"))

	var out struct {
		Big   int64   `json:"big"`
		Ratio float64 `json:"ratio"`
	}
	require.NoError(t, args.Decode(&out))
	assert.Equal(t, int64(9007199254740993), out.Big)
	assert.Equal(t, 0.5, out.Ratio)
}
