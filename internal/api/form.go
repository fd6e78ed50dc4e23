package api

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
)

// multipartMemory is the in-memory threshold for multipart parsing;
// larger file parts spill to temp files.
const multipartMemory = 32 << 20

// clientIP resolves the submitter's address the same way the rate
// limiter keys requests.
var clientIP = middleware.IPKeyFunc()

// formValue returns a trimmed form field.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// formList reads a repeatable form field. A single value that looks like
// a JSON array is decoded; anything else is taken verbatim.
func formList(r *http.Request, name string) []string {
	values := r.PostForm[name]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(values[0]), &decoded); err == nil {
			return decoded
		}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// formInt returns a numeric form field, zero when absent or malformed.
func formInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(formValue(r, name))
	if err != nil {
		return 0
	}
	return n
}

// formBool accepts the truthy spellings HTML forms produce.
func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(formValue(r, name)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// openUploads converts multipart file headers into intake uploads. The
// returned closer releases every opened part.
func openUploads(headers []*multipart.FileHeader) ([]intake.Upload, func(), error) {
	uploads := make([]intake.Upload, 0, len(headers))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, intake.Upload{
			Filename: hdr.Filename,
			MimeType: hdr.Header.Get("Content-Type"),
			Size:     hdr.Size,
			Content:  f,
		})
	}
	return uploads, closeAll, nil
}
