package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// formOverhead leaves room for the non-file fields of a multipart body.
const formOverhead = 1 << 20

// parseForm reads a multipart body of at most maxUpload bytes of files.
// URL-encoded bodies are accepted too, for forms without files.
func parseForm(w http.ResponseWriter, r *http.Request, maxUpload int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)

	err := r.ParseMultipartForm(maxUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.InvalidInput(fmt.Sprintf("upload exceeds %d MB", maxUpload>>20))
		}
		return apperrors.InvalidInput("invalid form body: " + err.Error())
	}
	return nil
}

// formString returns the trimmed value of key, or nil when the field was not
// sent at all.
func formString(r *http.Request, key string) *string {
	vs, ok := r.Form[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := strings.TrimSpace(vs[0])
	return &v
}

func formInt64(r *http.Request, key string) (int64, error) {
	v := formString(r, key)
	if v == nil || *v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(*v, 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

func formBool(r *http.Request, key string) (*bool, error) {
	v := formString(r, key)
	if v == nil || *v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be true or false", key))
	}
	return &b, nil
}

// formFile returns the uploaded file under key, or nil when none was sent.
// The caller releases the file by calling done.
func formFile(r *http.Request, key string) (_ *service.Upload, done func(), err error) {
	f, hdr, err := r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperrors.InvalidInput("invalid file field " + key + ": " + err.Error())
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &service.Upload{
		Filename:    hdr.Filename,
		ContentType: contentType,
		Size:        hdr.Size,
		Data:        f,
	}, func() { _ = f.Close() }, nil
}
