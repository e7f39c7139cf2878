// Package parser 定義網頁擷取器共用的頁面型別與 DOM 工具
package parser

import (
	"fmt"
	"strings"

	"recipe-extractor/internal/core/recipe"

	"github.com/PuerkitoBio/goquery"
)

// Page 已解析的網頁，擷取器只讀不寫
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
}

// NewPage 解析 HTML
func NewPage(pageURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{URL: pageURL, HTML: html, Doc: doc}, nil
}

// Clone 重新解析一份可修改的文件
func (p *Page) Clone() *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return goquery.CloneDocument(p.Doc)
	}
	return doc
}

// Parser 網頁擷取器，回傳候選食譜與是否達成功條件
type Parser interface {
	Parse(page *Page) (*recipe.Candidate, bool)
}

// ParserFunc 將函式轉為 Parser
type ParserFunc func(page *Page) (*recipe.Candidate, bool)

// Parse 實作 Parser
func (f ParserFunc) Parse(page *Page) (*recipe.Candidate, bool) {
	return f(page)
}

// Text 取得節點文字並合併空白
func Text(s *goquery.Selection) string {
	return recipe.CleanText(s.Text())
}

// SpacedText 以空白串接所有文字節點，避免相鄰元素的文字黏在一起
func SpacedText(s *goquery.Selection) string {
	var parts []string
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "#text" {
				parts = append(parts, child.Text())
				return
			}
			walk(child)
		})
	}
	walk(s)
	return recipe.CleanText(strings.Join(parts, " "))
}

// Texts 取得所有節點文字
func Texts(s *goquery.Selection) []string {
	out := make([]string, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		if t := Text(item); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Meta 依序讀取 meta name/property，回傳第一個非空值
func Meta(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name", "itemprop"} {
			if v, ok := doc.Find(fmt.Sprintf(`meta[%s="%s"]`, attr, key)).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// FirstText 依序嘗試選擇器，回傳第一個非空文字
func FirstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := Text(doc.Find(sel).First()); t != "" {
			return t
		}
	}
	return ""
}

// ImageSource 讀取 img 的 src（含 lazy-load 屬性）
func ImageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := img.Attr("srcset"); ok {
		if first := strings.Fields(strings.Split(v, ",")[0]); len(first) > 0 {
			return first[0]
		}
	}
	return ""
}
