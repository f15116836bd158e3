package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// maxBodyBytes はJSONボディの上限。
	maxBodyBytes = 1 << 20
	// maxMultipartMemory はmultipartフォームをメモリに保持する上限。
	maxMultipartMemory = 1 << 20
)

// validate はリクエスト構造体の検証に使う共有インスタンス。
// エラーのフィールド名にはjsonタグ、なければformタグの名前を使う。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// decodeJSON はJSONボディをdstにデコードし、validateタグで検証する。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return validate.Struct(dst)
}

// formValues はurlencodedまたはmultipartのフォーム値を解析して返す。
func formValues(r *http.Request) (map[string][]string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	return r.PostForm, nil
}

// optionalString はフォームに含まれる場合のみ値を返す。
func optionalString(form map[string][]string, key string) *string {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// optionalBool はフォームに含まれる場合のみ真偽値を返す。値が真偽値でない場合はエラー。
func optionalBool(form map[string][]string, key string) (*bool, error) {
	s := optionalString(form, key)
	if s == nil {
		return nil, nil
	}
	b, err := strconv.ParseBool(*s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return &b, nil
}

// firstValue はフォーム値の先頭を返す。
func firstValue(form map[string][]string, key string) string {
	if s := optionalString(form, key); s != nil {
		return *s
	}
	return ""
}

// validateValue はパスパラメータなど単一の値を指定のルールで検証する。
func validateValue(v, rule string) error {
	return validate.Var(v, rule)
}
