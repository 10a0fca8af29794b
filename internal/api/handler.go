package api

import (
	"encoding/json"
	"net/http"

	"github.com/roach88/dynfilter/internal/cache"
	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/operation"
	"github.com/roach88/dynfilter/internal/querysql"
)

// dialecter is implemented by SQL-backed product sources.
type dialecter interface {
	Dialect() querysql.Dialect
}

// cachedResult is the cached form of a filter response.
type cachedResult struct {
	Items json.RawMessage `json:"items"`
	Count int             `json:"count"`
}

func (s *server) filterProductsHandler(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if s.returnOnError(w, r, err) {
		return
	}

	p, err := operation.Prepare(catalog.ProductSchema, body)
	if s.returnOnError(w, r, err) {
		return
	}

	key := cache.Key(p.String())
	if cached, ok := s.lookupResult(r, key); ok {
		s.writeFilterResult(w, cached, "hit")
		return
	}

	elems, err := s.products.FindProducts(r.Context(), p)
	if s.returnOnError(w, r, err) {
		return
	}

	s.logger.Debug("filtered products", "pipeline", p.String(), "count", len(elems))

	items, err := json.Marshal(p.Present(elems))
	if s.returnOnError(w, r, err) {
		return
	}
	result := cachedResult{Items: items, Count: len(elems)}
	s.storeResult(r, key, result)

	s.writeFilterResult(w, result, "miss")
}

func (s *server) writeFilterResult(w http.ResponseWriter, result cachedResult, cacheStatus string) {
	var headers http.Header
	if s.cache != nil {
		headers = http.Header{"X-Cache": []string{cacheStatus}}
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success:  true,
			Data:     map[string]any{"items": result.Items},
			Metadata: map[string]any{"count": result.Count},
		},
		headers,
	)
}

// lookupResult returns the cached result of key. Cache failures are
// logged and treated as a miss.
func (s *server) lookupResult(r *http.Request, key string) (cachedResult, bool) {
	if s.cache == nil {
		return cachedResult{}, false
	}
	data, ok, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("result cache lookup failed", "key", key, "error", err)
		return cachedResult{}, false
	}
	if !ok {
		return cachedResult{}, false
	}

	var result cachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("discarding undecodable cached result", "key", key, "error", err)
		return cachedResult{}, false
	}
	return result, true
}

func (s *server) storeResult(r *http.Request, key string, result cachedResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err == nil {
		err = s.cache.Set(r.Context(), key, data)
	}
	if err != nil {
		s.logger.Warn("result cache store failed", "key", key, "error", err)
	}
}

func (s *server) explainProductsHandler(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if s.returnOnError(w, r, err) {
		return
	}

	p, err := operation.Prepare(catalog.ProductSchema, body)
	if s.returnOnError(w, r, err) {
		return
	}

	data := map[string]any{"pipeline": p.String()}
	if d, ok := s.products.(dialecter); ok {
		query, params, err := querysql.NewSQLCompiler(d.Dialect()).Compile(p)
		if s.returnOnError(w, r, err) {
			return
		}
		data["dialect"] = d.Dialect().Name()
		data["sql"] = query
		data["params"] = params
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: data}, nil) // nolint:errcheck
}
