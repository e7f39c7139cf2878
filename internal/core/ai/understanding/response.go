package understanding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/pkg/common"
)

// recipeResponse 模型回傳的食譜結構
type recipeResponse struct {
	Title        string      `json:"title"`
	Ingredients  lenientList `json:"ingredients"`
	Instructions lenientList `json:"instructions"`
	Servings     lenientInt  `json:"servings"`
	PrepMinutes  lenientInt  `json:"prep_minutes"`
	CookMinutes  lenientInt  `json:"cook_minutes"`
}

type instructionsResponse struct {
	Instructions lenientList `json:"instructions"`
}

// lenientList 接受字串陣列，也接受 {"text":...}、{"step":...}、{"name":...} 物件陣列
type lenientList []string

func (l *lenientList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected array: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("unexpected list item %s", common.Truncate(string(item), 40))
		}
		if s := objectText(obj); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func objectText(obj map[string]interface{}) string {
	for _, k := range []string{"text", "step", "instruction", "original"} {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	// {"quantity":"2","unit":"cups","name":"flour"}
	var parts []string
	for _, k := range []string{"quantity", "amount", "unit", "name"} {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case float64:
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return strings.Join(parts, " ")
}

// lenientInt 接受數字或 "4 servings" 之類的字串
type lenientInt int

func (n *lenientInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = lenientInt(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected number: %w", err)
	}
	if v, ok := recipe.ParseServings(s); ok {
		*n = lenientInt(v)
	}
	return nil
}

func (n lenientInt) ptr() *int {
	if n <= 0 {
		return nil
	}
	return recipe.IntPtr(int(n))
}

// decodeObject 從模型回應擷取 JSON 物件並解析
func decodeObject(content string, v interface{}) error {
	obj := common.ExtractJSONObject(content)
	if obj == "" {
		return fmt.Errorf("%w: no JSON object in response", recipe.ErrMalformedResponse)
	}
	if err := common.ParseJSON(obj, v); err != nil {
		// 部分模型會省略鍵的雙引號
		if err2 := common.ParseJSON(common.QuoteJSONKeys(obj), v); err2 != nil {
			return fmt.Errorf("%w: %v", recipe.ErrMalformedResponse, err)
		}
	}
	return nil
}

func (r *recipeResponse) candidate(minStep int) *recipe.Candidate {
	return &recipe.Candidate{
		Title:        recipe.CleanText(r.Title),
		Ingredients:  recipe.CleanList(r.Ingredients, recipe.CleanIngredient, 2),
		Instructions: recipe.CleanList(r.Instructions, recipe.CleanInstruction, minStep),
		Servings:     r.Servings.ptr(),
		PrepMinutes:  r.PrepMinutes.ptr(),
		CookMinutes:  r.CookMinutes.ptr(),
		Provenance:   map[recipe.Field]recipe.Tier{},
	}
}
