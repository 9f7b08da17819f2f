/*
Package req provides helpers for parsing the HTML form posts the server accepts.
*/
package req

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"secrets/internal/pkg/errs"
)

const (
	// MaxFormBytes caps the size of any form body. The largest legitimate
	// field is a secret, which is far below this.
	MaxFormBytes int64 = 64 << 10 // 64 KB
)

// BindForm parses a URL-encoded or multipart form body, enforcing MaxFormBytes.
func BindForm(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)

	switch mediaType {
	case "application/x-www-form-urlencoded":
		err = r.ParseForm()
	case "multipart/form-data":
		err = r.ParseMultipartForm(MaxFormBytes)
	default:
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// Field returns a trimmed body field. Use Raw for values such as passwords
// where surrounding whitespace is significant.
func Field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// Raw returns a body field exactly as submitted.
func Raw(r *http.Request, name string) string {
	return r.PostFormValue(name)
}
