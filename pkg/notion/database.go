package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a Notion database, following cursors.
func QueryAll(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		req = &notionapi.DatabaseQueryRequest{PageSize: 100, StartCursor: resp.NextCursor}
	}
}

// Titles returns the lower-cased, trimmed title of every page in dbID.
func Titles(ctx context.Context, c Client, dbID string) (map[string]struct{}, error) {
	pages, err := QueryAll(ctx, c, dbID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if t := PageTitle(p); t != "" {
			out[strings.ToLower(t)] = struct{}{}
		}
	}
	return out, nil
}

// PageTitle concatenates the plain text of a page's title property.
func PageTitle(page notionapi.Page) string {
	for _, prop := range page.Properties {
		tp, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, rt := range tp.Title {
			b.WriteString(rt.PlainText)
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// NewDatabasePage builds a create request for a page under dbID.
func NewDatabasePage(dbID string, props notionapi.Properties) *notionapi.PageCreateRequest {
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	}
}

// Title builds a title property.
func Title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}

// Text builds a rich-text property. Notion caps a text block at 2000
// characters; longer values are cut.
func Text(s string) notionapi.RichTextProperty {
	if r := []rune(s); len(r) > 2000 {
		s = string(r[:2000])
	}
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}
