/*
Package req provides helper functions for HTTP request parsing and data binding.

It wraps JSON decoding with content-type, size and strictness checks, and maps every
failure to an application error ready for resp.RespondError.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"roomchat/internal/pkg/errs"
)

// MaxJSONBodySize bounds the body accepted by BindJSON.
const MaxJSONBodySize int64 = 64 << 10 // 64 KB

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
