package extraction

import (
	"context"
	"fmt"
	"strings"

	"recipe-extractor/internal/core/fetch"
	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// AI 頁面層級成功門檻
const (
	minAIPageIngredients  = 2
	minAIPageInstructions = 2
)

// 轉成 markdown 前移除的區塊
const pageNoise = "script, style, noscript, template, iframe, svg, nav, header, footer, aside, form, button"

// runWeb 網頁層級：結構化資料 → 網站專屬 → 通用 → Spoonacular → AI 頁面，最後補營養資訊
func (e *Engine) runWeb(ctx context.Context, r *run, req recipe.Request) {
	r.confidence = webConfidence

	page := e.loadPage(ctx, r, req)
	if page == nil {
		e.step(ctx, r, recipe.TierStructuredData, func(context.Context) (*recipe.Candidate, bool, error) {
			return nil, false, recipe.ErrNoHTML
		})
		if !stopped(ctx) {
			e.spoonacular(ctx, r)
		}
		return
	}

	e.webTiers(ctx, r, page)
	e.applyNutrition(r, page)
}

func (e *Engine) webTiers(ctx context.Context, r *run, page *parser.Page) {
	r.structuredHit = e.step(ctx, r, recipe.TierStructuredData, func(context.Context) (*recipe.Candidate, bool, error) {
		c, ok := e.deps.Structured.Parse(page)
		if !ok {
			return c, false, e.deps.Structured.Criteria(c)
		}
		return c, true, nil
	})
	if r.structuredHit || stopped(ctx) {
		return
	}

	if p, found := e.deps.Sites.Lookup(page.URL); found {
		e.step(ctx, r, recipe.TierSiteSpecific, func(context.Context) (*recipe.Candidate, bool, error) {
			// 未達門檻的網站結果不合併，交給通用解析器
			if c, ok := p.Parse(page); ok {
				return c, true, nil
			}
			return nil, false, nil
		})
		if stopped(ctx) {
			return
		}
	}

	if !r.acc.HasIngredients() || !r.acc.HasInstructions() {
		e.step(ctx, r, recipe.TierGeneric, func(context.Context) (*recipe.Candidate, bool, error) {
			c, ok := e.deps.Generic.Parse(page)
			return c, ok, nil
		})
		if stopped(ctx) {
			return
		}
	}

	if !r.acc.IsFull() {
		e.spoonacular(ctx, r)
		if stopped(ctx) {
			return
		}
	}

	if !r.acc.IsFull() && e.opts.AIPageFallback && e.deps.Adapter.Available() {
		e.step(ctx, r, recipe.TierAIPage, func(ctx context.Context) (*recipe.Candidate, bool, error) {
			return e.aiPage(ctx, r, page)
		})
	}
}

// loadPage 取得可解析的 HTML：用戶端提供的片段不足時重新下載，下載失敗則沿用片段
func (e *Engine) loadPage(ctx context.Context, r *run, req recipe.Request) *parser.Page {
	html := req.RawHTML
	if (html == "" || fetch.NeedsFullFetch(html, e.opts.MinHTMLBytes)) && e.deps.Fetcher != nil {
		fctx, cancel := withTimeout(ctx, e.opts.MetadataTimeout)
		resp, err := e.deps.Fetcher.Fetch(fctx, r.source)
		cancel()
		if err != nil {
			r.fail(recipe.TierFetch, err)
		} else {
			html = resp.HTML
		}
	}
	if strings.TrimSpace(html) == "" {
		return nil
	}

	page, err := parser.NewPage(r.source, html)
	if err != nil {
		r.fail(recipe.TierFetch, err)
		return nil
	}
	return page
}

// spoonacular 未設定金鑰時不列入層級鏈
func (e *Engine) spoonacular(ctx context.Context, r *run) {
	if e.deps.Spoonacular == nil || !e.deps.Spoonacular.Enabled() {
		return
	}
	e.step(ctx, r, recipe.TierSpoonacular, func(ctx context.Context) (*recipe.Candidate, bool, error) {
		c, err := e.deps.Spoonacular.Extract(ctx, r.source)
		if err != nil {
			return nil, false, err
		}
		return c, c.HasIngredients(), nil
	})
}

func (e *Engine) aiPage(ctx context.Context, r *run, page *parser.Page) (*recipe.Candidate, bool, error) {
	md, err := pageMarkdown(page)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(md) == "" {
		return nil, false, criteria("page has no readable content")
	}

	c, err := e.deps.Adapter.ExtractFromText(ctx, r.acc.Title, md)
	if err != nil {
		return nil, false, err
	}
	ok := len(c.Ingredients) >= minAIPageIngredients || len(c.Instructions) >= minAIPageInstructions
	return c, ok, nil
}

// pageMarkdown 取主要內容區塊轉為 markdown
func pageMarkdown(page *parser.Page) (string, error) {
	doc := page.Clone()
	doc.Find(pageNoise).Remove()

	var content *goquery.Selection
	for _, sel := range []string{"main", "article", "[role=main]", "body"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			content = s
			break
		}
	}
	if content == nil {
		content = doc.Selection
	}

	html, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("render page content: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert page to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// applyNutrition 結構化資料的營養資訊與 HTML 營養區塊合併並換算為每份
func (e *Engine) applyNutrition(r *run, page *parser.Page) {
	if r.acc.Title == "" && !r.acc.HasIngredients() {
		return
	}
	facts := e.deps.Nutrition.Extract(page, r.acc.Nutrition, r.acc.Servings)
	if facts == nil {
		return
	}
	r.acc.Nutrition = facts
	if facts.Source != recipe.NutritionFromStructuredData {
		r.acc.Provenance[recipe.FieldNutrition] = recipe.TierNutrition
	}
}

func webConfidence(r *run) recipe.Confidence {
	switch {
	case !r.acc.HasIngredients():
		return recipe.ConfidenceLow
	case !r.acc.HasInstructions():
		return recipe.ConfidenceMedium
	case r.structuredHit,
		r.acc.Provenance[recipe.FieldIngredients] == recipe.TierStructuredData,
		r.acc.Provenance[recipe.FieldInstructions] == recipe.TierStructuredData:
		return recipe.ConfidenceHigh
	default:
		return recipe.ConfidenceMedium
	}
}
