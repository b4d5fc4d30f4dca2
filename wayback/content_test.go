package wayback

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnosuke/mcp-wayback/types"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Example Domain Archived Front Page</title></head>
<body>
<script>window.tracker = "should never appear";</script>
<div id="nav"><a href="/">Home</a> | <a href="/about">About</a></div>
<article>
<h1>Example Domain Archived Front Page</h1>
<p>This domain is for use in illustrative examples in documents. You may use this
domain in literature without prior coordination or asking for permission, which is
exactly what the archive captured on that day.</p>
<p>The capture preserves the original wording of the page, including the paragraph
about reserved names and the link to further information about the registry that
keeps the domain available for documentation purposes.</p>
<p>Readers who browse the archived copy see the same text the site served at the time,
with the archive toolbar injected around it by the replay service.</p>
</article>
</body>
</html>`

func TestAdapter_Content(t *testing.T) {
	server := startMockServer(t, nil, map[string]mockResponse{
		"20020120142510/http://example.com/": {Body: articlePage, ContentType: "text/html; charset=utf-8", StatusCode: 200},
	})
	a := NewAdapter(newTestClient(t, server.URL))

	snapshot := types.Snapshot{Timestamp: "20020120142510", OriginalURL: "http://example.com/"}
	res, err := a.Content(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, snapshot, res.Snapshot)
	assert.Equal(t, len(articlePage), res.Length)
	assert.Equal(t, server.URL+"/web/20020120142510/http://example.com/", res.SnapshotURL)
	assert.Contains(t, res.Title, "Example Domain")
	assert.Contains(t, res.Content, "illustrative examples")
	assert.NotContains(t, res.Content, "should never appear")
	assert.NotContains(t, res.Content, "<p>")
}

func TestAdapter_Content_FetchError(t *testing.T) {
	server := startMockServer(t, nil, nil)
	a := NewAdapter(newTestClient(t, server.URL))

	_, err := a.Content(context.Background(), types.Snapshot{Timestamp: "1", OriginalURL: "http://missing.test/"})
	require.Error(t, err)
}

func TestDecodeHTML_Latin1(t *testing.T) {
	// "café" encoded as ISO-8859-1
	body := "<html><body>caf\xe9</body></html>"
	decoded, err := decodeHTML(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Contains(t, decoded, "café")
}

func TestBodyMarkdown(t *testing.T) {
	html := `<html><head><title>Tiny</title><style>p{color:red}</style></head>
<body><script>alert(1)</script><p>Hello <b>archive</b></p></body></html>`

	title, markdown, err := bodyMarkdown(html)
	require.NoError(t, err)
	assert.Equal(t, "Tiny", title)
	assert.True(t, strings.HasPrefix(markdown, "# Tiny\n\n"))
	assert.Contains(t, markdown, "Hello **archive**")
	assert.NotContains(t, markdown, "alert")
	assert.NotContains(t, markdown, "color:red")
}
