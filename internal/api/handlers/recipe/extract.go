package recipe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/queue"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Extractor 擷取流程
type Extractor interface {
	ExtractDetailed(ctx context.Context, req recipe.Request) (*extraction.Outcome, error)
}

// Batcher 批次擷取
type Batcher interface {
	Batch(ctx context.Context, reqs []recipe.Request) []queue.Outcome
}

// ExtractRequest 單筆擷取請求
type ExtractRequest struct {
	URL          string `json:"url" binding:"required"`  // 食譜網頁或短影音網址
	HTML         string `json:"html,omitempty"`          // 用戶端已取得的頁面 HTML（可省略）
	PlatformHint string `json:"platform_hint,omitempty"` // web | youtube | tiktok
}

// BatchRequest 批次擷取請求
type BatchRequest struct {
	Items []ExtractRequest `json:"items" binding:"required,min=1,dive"`
}

// BatchItem 批次中單筆結果
type BatchItem struct {
	ID     string                `json:"id"`
	URL    string                `json:"url"`
	Result *recipe.Result        `json:"result,omitempty"`
	Error  *common.ErrorResponse `json:"error,omitempty"`
}

// BatchResponse 批次擷取響應
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// Handler 擷取處理程序
type Handler struct {
	extractor    Extractor
	batcher      Batcher
	maxBatchSize int
	debug        bool
}

// NewHandler 創建擷取處理程序
func NewHandler(extractor Extractor, batcher Batcher, maxBatchSize int, debug bool) *Handler {
	if maxBatchSize <= 0 {
		maxBatchSize = 10
	}
	return &Handler{
		extractor:    extractor,
		batcher:      batcher,
		maxBatchSize: maxBatchSize,
		debug:        debug,
	}
}

func (r ExtractRequest) toDomain() recipe.Request {
	return recipe.Request{
		Source:       r.URL,
		RawHTML:      r.HTML,
		PlatformHint: recipe.Platform(r.PlatformHint),
	}
}

// HandleExtract 擷取單一來源；回應主體即擷取結果，是否命中快取由 X-Cache 表示
func (h *Handler) HandleExtract(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		common.WriteError(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	common.LogInfo("開始處理擷取請求",
		zap.String("request_id", requestID),
		zap.String("url", req.URL),
		zap.Int("html_bytes", len(req.HTML)),
		zap.String("platform_hint", req.PlatformHint),
	)

	out, err := h.extractor.ExtractDetailed(c.Request.Context(), req.toDomain())
	if err != nil {
		ce := toCustomError(err)
		common.LogWarn("擷取請求失敗",
			zap.String("request_id", requestID),
			zap.String("code", ce.Code),
			zap.Error(err),
		)
		common.WriteError(c, ce, h.debug)
		return
	}

	cacheHeader := "MISS"
	if out.CacheHit {
		cacheHeader = "HIT"
	}
	c.Header("X-Cache", cacheHeader)
	c.Header("X-Extraction-Time", fmt.Sprintf("%dms", out.Duration.Milliseconds()))
	c.JSON(http.StatusOK, out.Result)
}

// HandleBatch 透過工作隊列並行擷取多個來源；單筆失敗不影響其他筆
func (h *Handler) HandleBatch(c *gin.Context) {
	requestID := requestid.Get(c)

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("批次請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		common.WriteError(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}
	if len(req.Items) > h.maxBatchSize {
		err := fmt.Errorf("batch of %d exceeds limit %d", len(req.Items), h.maxBatchSize)
		common.WriteError(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	reqs := make([]recipe.Request, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = item.toDomain()
	}
	outcomes := h.batcher.Batch(c.Request.Context(), reqs)

	// 呼叫端已中斷時不回傳部分結果
	if c.Request.Context().Err() != nil {
		common.WriteError(c, common.ErrRequestCancelled, h.debug)
		return
	}

	resp := BatchResponse{Items: make([]BatchItem, len(outcomes))}
	for i, o := range outcomes {
		item := BatchItem{ID: common.GenerateUUID(), URL: req.Items[i].URL}
		if o.Err != nil {
			er := toCustomError(o.Err).Response(h.debug)
			item.Error = &er
			resp.Failed++
		} else {
			item.Result = o.Result
			resp.Succeeded++
		}
		resp.Items[i] = item
	}

	common.LogInfo("批次擷取完成",
		zap.String("request_id", requestID),
		zap.Int("items", len(resp.Items)),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	c.JSON(http.StatusOK, resp)
}

// toCustomError 將擷取錯誤對應到 API 錯誤
func toCustomError(err error) *common.CustomError {
	switch {
	case errors.Is(err, recipe.ErrInvalidInput):
		return common.ErrInvalidInput.WithErr(err)
	case errors.Is(err, recipe.ErrCancelled):
		return common.ErrRequestCancelled.WithErr(err)
	case errors.Is(err, queue.ErrClosed):
		return common.ErrServiceUnavailable.WithErr(err)
	default:
		return common.AsCustomError(err)
	}
}
