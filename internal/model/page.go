package model

// CrawledPage is one page returned by the crawl job.
type CrawledPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Markdown   string `json:"markdown"`
	StatusCode int    `json:"status_code"`
}

// CrawlArtifact is the concatenated text of a crawl.
type CrawlArtifact struct {
	URL     string `json:"url"`
	Path    string `json:"path"`
	Content string `json:"-"`
	Pages   int    `json:"pages"`
}
