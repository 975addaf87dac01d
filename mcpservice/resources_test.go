package mcpservice

import (
	"context"
	"errors"
	"testing"

	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticText(s string) ResourceHandler {
	return func(context.Context) (string, error) { return s, nil }
}

func TestResourceRegistryRejects(t *testing.T) {
	r := NewResourceRegistry()
	assert.ErrorIs(t, r.Register(Resource{Name: "n", Handler: staticText("")}), ErrInvalidResource)
	assert.ErrorIs(t, r.Register(Resource{URI: "a://b", Handler: staticText("")}), ErrInvalidResource)
	assert.ErrorIs(t, r.Register(Resource{URI: "a://b", Name: "n"}), ErrInvalidResource)

	tr := NewResourceTemplateRegistry()
	h := func(context.Context, map[string]string) (string, error) { return "", nil }
	assert.ErrorIs(t, tr.Register(ResourceTemplate{Name: "n", Handler: h}), ErrInvalidResourceTemplate)
	assert.ErrorIs(t, tr.Register(ResourceTemplate{URITemplate: "a://{x}", Handler: h}), ErrInvalidResourceTemplate)
	assert.ErrorIs(t, tr.Register(ResourceTemplate{URITemplate: "a://{+x}", Name: "n", Handler: h}), ErrInvalidResourceTemplate)
}

func TestResourceRead(t *testing.T) {
	r := NewResourceRegistry()
	require.NoError(t, r.Register(Resource{URI: "notes://readme", Name: "readme", Handler: staticText("hello")}))
	require.NoError(t, r.Register(Resource{URI: "notes://bad", Name: "bad", MimeType: "application/json", Handler: func(context.Context) (string, error) {
		return "", errors.New("backend offline")
	}}))

	res, err := r.Read(context.Background(), "notes://readme")
	require.NoError(t, err)
	assert.Equal(t, []mcp.ResourceContents{{URI: "notes://readme", MimeType: "text/plain", Text: "hello"}}, res.Contents)

	_, err = r.Read(context.Background(), "notes://bad")
	var rerr *ResourceReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "notes://bad", rerr.URI)
	assert.Equal(t, "backend offline", rerr.Error())

	_, err = r.Read(context.Background(), "notes://none")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	page, err := r.List("", 0)
	require.NoError(t, err)
	assert.Equal(t, []mcp.Resource{
		{URI: "notes://readme", Name: "readme", MimeType: "text/plain"},
		{URI: "notes://bad", Name: "bad", MimeType: "application/json"},
	}, page.Items)
}

func TestTemplateReadFirstMatchWins(t *testing.T) {
	r := NewResourceTemplateRegistry()
	require.NoError(t, r.Register(ResourceTemplate{URITemplate: "notes://{id}", Name: "by id", Handler: func(_ context.Context, vars map[string]string) (string, error) {
		return "id=" + vars["id"], nil
	}}))
	require.NoError(t, r.Register(ResourceTemplate{URITemplate: "notes://{slug}", Name: "by slug", Handler: func(_ context.Context, vars map[string]string) (string, error) {
		return "slug=" + vars["slug"], nil
	}}))
	require.NoError(t, r.Register(ResourceTemplate{URITemplate: "notes://{id}/panic", Name: "panics", Handler: func(context.Context, map[string]string) (string, error) {
		panic("template exploded")
	}}))

	res, err := r.Read(context.Background(), "notes://42")
	require.NoError(t, err)
	assert.Equal(t, "id=42", res.Contents[0].Text)
	assert.Equal(t, "notes://42", res.Contents[0].URI)

	_, err = r.Read(context.Background(), "notes://42/panic")
	var rerr *ResourceReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "template exploded", rerr.Error())

	_, err = r.Read(context.Background(), "files://42")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	page, err := r.List("1", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "notes://{slug}", page.Items[0].URITemplate)
	assert.Equal(t, "2", page.Next())
}
