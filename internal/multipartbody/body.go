// Package multipartbody renders a GraphQL operation with uploads as a
// multipart/form-data body per the GraphQL multipart request convention:
// an "operations" field carrying the JSON payload with files nulled out,
// a "map" field associating 1-based part indexes with the variable paths
// they fill, and one body part per distinct file.
package multipartbody

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/hyperse-io/apollo-upload-client/internal/extract"
	"github.com/hyperse-io/apollo-upload-client/internal/upload"
)

// ErrNotUpload indicates an extracted value that the transport cannot
// ship: only *upload.Upload values carry binary content.
var ErrNotUpload = errors.New("multipartbody: extracted value is not an *upload.Upload")

// Write renders operations and files to w and returns the content type
// carrying the generated boundary. File contents are consumed here, in
// files-map order, matching the 1-based part keys in the "map" field.
func Write(w io.Writer, operations any, files *extract.Files) (contentType string, err error) {
	mw := multipart.NewWriter(w)

	ops, err := json.Marshal(operations)
	if err != nil {
		return "", fmt.Errorf("marshaling operations: %w", err)
	}
	if err := writeField(mw, "operations", ops); err != nil {
		return "", err
	}

	pathMap := make(map[string][]string, files.Len())
	for i, entry := range files.Entries() {
		pathMap[strconv.Itoa(i+1)] = entry.Paths
	}
	indexed, err := json.Marshal(pathMap)
	if err != nil {
		return "", fmt.Errorf("marshaling map: %w", err)
	}
	if err := writeField(mw, "map", indexed); err != nil {
		return "", err
	}

	for i, entry := range files.Entries() {
		u, ok := entry.File.(*upload.Upload)
		if !ok {
			return "", fmt.Errorf("%w: %T at %s", ErrNotUpload, entry.File, entry.Paths[0])
		}
		part, err := createFilePart(mw, strconv.Itoa(i+1), u)
		if err != nil {
			return "", fmt.Errorf("creating part for %q: %w", u.Name, err)
		}
		if u.Content != nil {
			if _, err := io.Copy(part, u.Content); err != nil {
				return "", fmt.Errorf("copying %q: %w", u.Name, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing body: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func writeField(mw *multipart.Writer, name string, value []byte) error {
	part, err := mw.CreateFormField(name)
	if err != nil {
		return fmt.Errorf("creating %s field: %w", name, err)
	}
	if _, err := part.Write(value); err != nil {
		return fmt.Errorf("writing %s field: %w", name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func createFilePart(mw *multipart.Writer, field string, u *upload.Upload) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s"`,
		field, quoteEscaper.Replace(u.Name)))
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return mw.CreatePart(h)
}
