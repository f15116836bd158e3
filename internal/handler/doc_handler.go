package handler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// DocHandler はOpenAPIドキュメントとSwagger UIを提供する。
type DocHandler struct {
	doc []byte
	ui  http.Handler
}

// NewDocHandler は埋め込みのOpenAPI YAMLをJSONに変換してDocHandlerを生成する。
// docURLはSwagger UIが読み込むドキュメントのURL。
func NewDocHandler(docURL string) (*DocHandler, error) {
	doc, err := openAPIJSON(openAPISpec)
	if err != nil {
		return nil, err
	}
	return &DocHandler{
		doc: doc,
		ui:  httpSwagger.Handler(httpSwagger.URL(docURL)),
	}, nil
}

// Doc はOpenAPI 3.0.0ドキュメントをJSONで返す。
// GET /doc
func (h *DocHandler) Doc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.doc); err != nil {
		slog.Error("failed to write openapi document", slog.String("error", err.Error()))
	}
}

// RedirectUI はSwagger UIのindex.htmlへリダイレクトする。
// GET /ui
func (h *DocHandler) RedirectUI(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/ui/index.html", http.StatusMovedPermanently)
}

// UI はSwagger UIの静的ファイルを返す。
// GET /ui/*
func (h *DocHandler) UI(w http.ResponseWriter, r *http.Request) {
	h.ui.ServeHTTP(w, r)
}

// openAPIJSON はOpenAPI YAMLをJSONに変換する。
func openAPIJSON(src []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi.yaml: %w", err)
	}
	out, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document: %w", err)
	}
	return out, nil
}

// normalizeYAML は文字列以外のキーを持つマップを文字列キーに変換する。
// レスポンスコードのような数値キーはJSONのオブジェクトキーにならないため。
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
