// Package security は記事コンテンツのサニタイズを提供する。
//
// タイトルは全てのHTMLを除去したテキストとして、本文は許可リストに含まれる
// タグのみを残したHTMLとして保存する。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// PostSanitizer は記事の保存前に入力をサニタイズする。
type PostSanitizer interface {
	// SanitizeTitle は全てのタグを除去し、前後の空白を取り除く。
	SanitizeTitle(raw string) string
	// SanitizeContent は許可タグ以外を除去した安全なHTMLを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeContent(raw string) string
}

// ContentSanitizer はbluemondayのポリシーによるPostSanitizerの実装。
// ポリシーは生成後に変更しないため、複数goroutineから安全に使用できる。
type ContentSanitizer struct {
	title   *bluemonday.Policy
	content *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
// 本文ポリシーの内容:
//   - 許可タグ: p, br, h1-h6, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - script, iframe, style および全てのon*イベント属性は除去
//   - URLはhttpsスキームのみ許可、相対URLは不許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を付与
func NewContentSanitizer() *ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(_ *url.URL) bool {
		return true
	})

	return &ContentSanitizer{
		title:   bluemonday.StrictPolicy(),
		content: p,
	}
}

// SanitizeTitle は全てのタグを除去したプレーンテキストを返す。
// レスポンスはJSONのため、StrictPolicyが行うHTMLエスケープは元に戻す。
func (s *ContentSanitizer) SanitizeTitle(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.title.Sanitize(raw)))
}

// SanitizeContent は本文HTMLをサニタイズする。
func (s *ContentSanitizer) SanitizeContent(raw string) string {
	return s.content.Sanitize(raw)
}

// compile-time interface check
var _ PostSanitizer = (*ContentSanitizer)(nil)
