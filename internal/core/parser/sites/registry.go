// Package sites 提供以網域查詢的站點專屬擷取器
package sites

import (
	"sort"
	"strings"
	"sync"

	"recipe-extractor/internal/core/parser"
	"recipe-extractor/internal/core/recipe"
)

// MinIngredients 站點擷取器成功所需的最少食材數
const MinIngredients = 2

// Registry 網域 -> 擷取器
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]parser.Parser
}

// NewRegistry 創建空的登錄表
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]parser.Parser)}
}

// Default 內建站點擷取器
func Default() *Registry {
	r := NewRegistry()
	r.Register(allRecipes(), "allrecipes.com")
	r.Register(foodNetwork(), "foodnetwork.com", "foodnetwork.co.uk")
	r.Register(bbcGoodFood(), "bbcgoodfood.com")
	return r
}

// Register 註冊擷取器，可同時註冊多個網域別名
func (r *Registry) Register(p parser.Parser, domains ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range domains {
		r.adapters[recipe.NormalizeHost(d)] = p
	}
}

// Lookup 依網址主機名稱查詢，子網域會往上層比對
func (r *Registry) Lookup(pageURL string) (parser.Parser, bool) {
	host := recipe.NormalizeHost(hostOf(pageURL))
	if host == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for {
		if p, ok := r.adapters[host]; ok {
			return p, true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 || !strings.Contains(host[i+1:], ".") {
			return nil, false
		}
		host = host[i+1:]
	}
}

// Domains 已註冊網域（排序）
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for d := range r.adapters {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func hostOf(pageURL string) string {
	u, err := recipe.ParseSource(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}
