package extraction

import (
	"context"
	"fmt"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/core/video"
)

// AI 描述層級成功門檻
const (
	minAIIngredients  = 2
	minAIInstructions = 2
)

// runVideo 影片層級：中繼資料 → 描述規則解析 → AI 描述 → 依食材補步驟 → 字幕 → 依標題生成
func (e *Engine) runVideo(ctx context.Context, r *run, ref video.Ref) {
	r.confidence = videoConfidence

	md := e.videoMetadata(ctx, r, ref)
	if stopped(ctx) {
		return
	}
	title := md.Title
	ai := e.deps.Adapter.Available()

	if md.Description != "" {
		r.descriptionHit = e.step(ctx, r, recipe.TierDescriptionPattern, func(context.Context) (*recipe.Candidate, bool, error) {
			c, ok := video.ParseDescription(md.Description)
			return c, ok, nil
		})
		if stopped(ctx) {
			return
		}

		if !r.descriptionHit && ai {
			e.step(ctx, r, recipe.TierAIDescription, func(ctx context.Context) (*recipe.Candidate, bool, error) {
				c, err := e.deps.Adapter.ExtractFromText(ctx, title, md.Description)
				if err != nil {
					return nil, false, err
				}
				return c, len(c.Ingredients) >= minAIIngredients || len(c.Instructions) >= minAIInstructions, nil
			})
			if stopped(ctx) {
				return
			}
		}
	}

	if ai && r.acc.HasIngredients() && !r.acc.HasInstructions() {
		e.generateInstructions(ctx, r, recipe.TierAIInstructions, title, "")
		if stopped(ctx) {
			return
		}
	}

	e.transcriptTiers(ctx, r, ref, title, ai)
	if stopped(ctx) {
		return
	}

	if ai && r.acc.IsEmpty() {
		e.step(ctx, r, recipe.TierAITitleGeneration, func(ctx context.Context) (*recipe.Candidate, bool, error) {
			c, err := e.deps.Adapter.GenerateRecipe(ctx, title)
			if err != nil {
				return nil, false, err
			}
			return c, true, nil
		})
	}
}

// videoMetadata 取得失敗時回傳空的中繼資料，後續層級仍會執行
func (e *Engine) videoMetadata(ctx context.Context, r *run, ref video.Ref) *video.Metadata {
	md := &video.Metadata{}
	e.step(ctx, r, recipe.TierVideoMetadata, func(ctx context.Context) (*recipe.Candidate, bool, error) {
		prov, err := e.deps.Videos.For(ref.Platform)
		if err != nil {
			return nil, false, err
		}
		mctx, cancel := withTimeout(ctx, e.opts.MetadataTimeout)
		defer cancel()
		got, err := prov.Metadata(mctx, ref)
		if err != nil {
			return nil, false, fmt.Errorf("%s metadata: %w", ref.Platform, err)
		}
		md = got

		c := recipe.NewCandidate(r.source)
		c.Title = recipe.CleanText(got.Title)
		c.ImageURL = got.ThumbnailURL
		if c.Title == "" {
			return c, false, criteria("video has no title")
		}
		return c, true, nil
	})
	return md
}

// transcriptTiers 沒有字幕時不列入層級鏈；其他字幕錯誤記錄為失敗
func (e *Engine) transcriptTiers(ctx context.Context, r *run, ref video.Ref, title string, ai bool) {
	if !ai {
		return
	}
	prov, err := e.deps.Videos.For(ref.Platform)
	if err != nil {
		return
	}

	tctx, cancel := withTimeout(ctx, e.opts.TranscriptTimeout)
	transcript, err := prov.Transcript(tctx, ref)
	cancel()
	switch {
	case video.IsTranscriptUnavailable(err):
		return
	case err != nil:
		r.fail(recipe.TierAITranscript, fmt.Errorf("fetch transcript: %w", err))
		return
	case transcript == "":
		return
	}
	if stopped(ctx) {
		return
	}

	e.step(ctx, r, recipe.TierAITranscript, func(ctx context.Context) (*recipe.Candidate, bool, error) {
		c, err := e.deps.Adapter.ExtractFromTranscript(ctx, title, transcript)
		if err != nil {
			return nil, false, err
		}
		return c, len(c.Ingredients) >= minAIIngredients || len(c.Instructions) >= minAIInstructions, nil
	})
	if stopped(ctx) {
		return
	}

	if r.acc.HasIngredients() && !r.acc.HasInstructions() {
		e.generateInstructions(ctx, r, recipe.TierAITranscriptInstructions, title, transcript)
	}
}

func (e *Engine) generateInstructions(ctx context.Context, r *run, tier recipe.Tier, title, transcript string) {
	e.step(ctx, r, tier, func(ctx context.Context) (*recipe.Candidate, bool, error) {
		steps, err := e.deps.Adapter.GenerateInstructions(ctx, title, r.acc.Ingredients, transcript)
		if err != nil {
			return nil, false, err
		}
		return &recipe.Candidate{Instructions: steps}, true, nil
	})
}

func videoConfidence(r *run) recipe.Confidence {
	switch {
	case r.acc.IsEmpty():
		return recipe.ConfidenceLow
	case r.acc.Provenance[recipe.FieldIngredients] == recipe.TierAITitleGeneration,
		r.acc.Provenance[recipe.FieldInstructions] == recipe.TierAITitleGeneration:
		return recipe.ConfidenceLow
	case r.descriptionHit:
		return recipe.ConfidenceHigh
	default:
		return recipe.ConfidenceMedium
	}
}
