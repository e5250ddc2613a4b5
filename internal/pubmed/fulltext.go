// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrNotXML is returned when efetch answers with an HTML page instead of
// article XML, which happens for articles without PMC full text.
var ErrNotXML = errors.New("received HTML instead of XML")

// FetchFullText downloads the PMC XML for id.
func (c *Client) FetchFullText(ctx context.Context, id string) ([]byte, error) {
	params := c.commonParams()
	params.Set("db", DefaultDB)
	params.Set("id", id)
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	if isHTML(body) {
		if title := htmlTitle(body); title != "" {
			return nil, fmt.Errorf("%w for PMC%s: %s", ErrNotXML, id, title)
		}
		return nil, fmt.Errorf("%w for PMC%s", ErrNotXML, id)
	}
	return body, nil
}

// isHTML reports whether the start of body looks like an HTML document.
func isHTML(body []byte) bool {
	head := body
	if len(head) > 100 {
		head = head[:100]
	}
	lower := strings.ToLower(string(bytes.TrimSpace(head)))
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

// htmlTitle returns the trimmed text of the first <title> element.
func htmlTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				return strings.TrimSpace(n.FirstChild.Data)
			}
			return ""
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(doc)
}
