package wayback

import (
	"context"
	"io"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/charset"

	"github.com/cnosuke/mcp-wayback/internal/tracelog"
	"github.com/cnosuke/mcp-wayback/types"
)

// Content fetches snapshot and renders its archived page as Markdown.
func (a *Adapter) Content(ctx context.Context, snapshot types.Snapshot) (*types.ContentResponse, error) {
	log := tracelog.FromContext(ctx)

	html, err := a.GetSnapshotHTML(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeHTML(html.Body, html.ContentType)
	if err != nil {
		log.Warnw("charset decoding failed, using raw body", "error", err)
		decoded = html.Body
	}

	title, markdown, err := readableMarkdown(decoded, html.SnapshotURL)
	if err != nil {
		log.Warnw("readability extraction failed, falling back to full body", "url", html.SnapshotURL, "error", err)
		title, markdown, err = bodyMarkdown(decoded)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert snapshot to Markdown")
		}
	}

	log.Debugw("snapshot content extracted",
		"url", html.SnapshotURL,
		"title", title,
		"markdown_length", len(markdown))

	return &types.ContentResponse{
		Snapshot:    snapshot,
		SnapshotURL: html.SnapshotURL,
		Title:       title,
		Content:     markdown,
		Length:      html.Length,
	}, nil
}

// decodeHTML converts body to UTF-8 using the Content-Type header and any
// <meta charset> declaration.
func decodeHTML(body, contentType string) (string, error) {
	r, err := charset.NewReader(strings.NewReader(body), contentType)
	if err != nil {
		return "", errors.Wrap(err, "failed to detect charset")
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode body")
	}
	return string(out), nil
}

func sanitize(fragment string) string {
	return bluemonday.UGCPolicy().Sanitize(fragment)
}

func readableMarkdown(htmlContent, pageURL string) (string, string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to parse URL")
	}

	article, err := readability.FromReader(strings.NewReader(htmlContent), parsedURL)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to extract content with readability")
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", "", errors.New("readability returned no content")
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(sanitize(article.Content))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to convert extracted content to Markdown")
	}

	if article.Title != "" {
		markdown = "# " + article.Title + "\n\n" + markdown
	}
	return article.Title, markdown, nil
}

func bodyMarkdown(htmlContent string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to parse HTML")
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript").Remove()

	bodyHTML, err := doc.Find("body").Html()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to render body")
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(sanitize(bodyHTML))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to convert HTML to Markdown")
	}
	if title != "" {
		markdown = "# " + title + "\n\n" + markdown
	}
	return title, markdown, nil
}
