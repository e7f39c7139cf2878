package recipe

// Platform 來源平台
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
	PlatformUnknown Platform = "unknown"
)

// IsVideo 是否為影音平台
func (p Platform) IsVideo() bool {
	return p == PlatformYouTube || p == PlatformTikTok
}

// Request 擷取請求，建立後不可變更
type Request struct {
	Source       string   `json:"source"`
	RawHTML      string   `json:"raw_html,omitempty"`
	PlatformHint Platform `json:"platform_hint,omitempty"`
}

// Tier 擷取層級名稱
type Tier string

const (
	// 網頁
	TierStructuredData Tier = "structured_data"
	TierSiteSpecific   Tier = "site_specific"
	TierGeneric        Tier = "generic"
	TierSpoonacular    Tier = "spoonacular"
	TierAIPage         Tier = "ai_page"

	// 影片
	TierVideoMetadata            Tier = "video_metadata"
	TierDescriptionPattern       Tier = "description_pattern"
	TierAIDescription            Tier = "ai_description"
	TierAIInstructions           Tier = "ai_instructions_from_ingredients"
	TierAITitleGeneration        Tier = "ai_title_generation"
	TierAITranscript             Tier = "ai_transcript"
	TierAITranscriptInstructions Tier = "ai_instructions_from_transcript"

	// 營養
	TierNutrition Tier = "nutrition"

	// 下載失敗只記錄在 Errors，不列入層級鏈
	TierFetch Tier = "fetch"
)

// IsGenerated 該層級產生的內容是否為 AI 生成（非擷取）
func (t Tier) IsGenerated() bool {
	switch t {
	case TierAIInstructions, TierAITitleGeneration, TierAITranscriptInstructions:
		return true
	}
	return false
}

// Confidence 結果可信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Downgrade 降一級可信度
func (c Confidence) Downgrade() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Field 食譜欄位名稱，用於來源追蹤
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldIngredients  Field = "ingredients"
	FieldInstructions Field = "instructions"
	FieldServings     Field = "servings"
	FieldPrepTime     Field = "prep_time"
	FieldCookTime     Field = "cook_time"
	FieldTotalTime    Field = "total_time"
	FieldImage        Field = "image"
	FieldNutrition    Field = "nutrition"
)

// Candidate 擷取過程中逐層累積的食譜
type Candidate struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Ingredients  []string        `json:"ingredients"`
	Instructions []string        `json:"instructions"`
	Servings     *int            `json:"servings,omitempty"`
	PrepMinutes  *int            `json:"prep_minutes,omitempty"`
	CookMinutes  *int            `json:"cook_minutes,omitempty"`
	TotalMinutes *int            `json:"total_minutes,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	SourceURL    string          `json:"source_url"`
	SiteName     string          `json:"site_name,omitempty"`
	Nutrition    *NutritionFacts `json:"nutrition,omitempty"`
	Generated    bool            `json:"generated,omitempty"`
	Provenance   map[Field]Tier  `json:"provenance,omitempty"`
}

// NutritionSource 營養資訊來源
type NutritionSource string

const (
	NutritionFromStructuredData NutritionSource = "structured_data"
	NutritionFromHTMLSection    NutritionSource = "html_section"
	NutritionMerged             NutritionSource = "merged"
)

// Nutrient 數值加單位
type Nutrient struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// NutritionFacts 營養資訊
type NutritionFacts struct {
	Calories   *Nutrient           `json:"calories,omitempty"`
	Protein    *Nutrient           `json:"protein,omitempty"`
	Carbs      *Nutrient           `json:"carbs,omitempty"`
	Fat        *Nutrient           `json:"fat,omitempty"`
	Fiber      *Nutrient           `json:"fiber,omitempty"`
	Sugar      *Nutrient           `json:"sugar,omitempty"`
	Sodium     *Nutrient           `json:"sodium,omitempty"`
	Micros     map[string]Nutrient `json:"micros,omitempty"`
	Source     NutritionSource     `json:"source"`
	PerServing bool                `json:"per_serving"`
}

// TierFailure 非致命的層級失敗紀錄
type TierFailure struct {
	Tier    Tier   `json:"tier"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result 擷取結果，建立後不可變更
type Result struct {
	Recipe       Candidate     `json:"recipe"`
	Confidence   Confidence    `json:"confidence"`
	TierChain    []Tier        `json:"tier_chain"`
	Errors       []TierFailure `json:"errors,omitempty"`
	QualityScore float64       `json:"quality_score"`
	Found        bool          `json:"found"`
	TimedOut     bool          `json:"timed_out,omitempty"`
}
