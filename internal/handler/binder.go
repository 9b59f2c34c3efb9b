package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

// readForm reads a free-form body into a document. JSON objects are kept
// as sent, with numbers preserved verbatim. Form fields become a string,
// or a list of strings when repeated. Files are only returned for
// multipart bodies. A request without a content type yields an empty
// document.
func readForm(c echo.Context, maxMemory int64) (model.Document, map[string][]*multipart.FileHeader, error) {
	req := c.Request()

	ctype := req.Header.Get(echo.HeaderContentType)
	if ctype == "" {
		return model.Document{}, nil, nil
	}

	mediaType, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return nil, nil, echo.ErrUnsupportedMediaType
	}

	switch mediaType {
	case echo.MIMEApplicationJSON:
		doc, err := decodeJSON(req.Body)
		return doc, nil, err

	case echo.MIMEApplicationForm:
		values, err := c.FormParams()
		if err != nil {
			return nil, nil, err
		}
		return valuesToDocument(values), nil, nil

	case echo.MIMEMultipartForm:
		if err := req.ParseMultipartForm(maxMemory); err != nil {
			return nil, nil, err
		}
		return valuesToDocument(req.MultipartForm.Value), req.MultipartForm.File, nil

	default:
		return nil, nil, echo.ErrUnsupportedMediaType
	}
}

var errNotJSONObject = errs.NewBadRequestError("Request body must be a JSON object.", true, nil, nil)

// decodeJSON reads exactly one JSON object; trailing content is rejected.
func decodeJSON(body io.Reader) (model.Document, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var doc model.Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Document{}, nil
		}
		return nil, jsonBodyError(err)
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, jsonBodyError(err)
	}

	if doc == nil {
		doc = model.Document{}
	}
	return doc, nil
}

// jsonBodyError keeps echo's body-limit errors and reports anything else as
// a malformed body.
func jsonBodyError(err error) error {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return err
	}
	return errNotJSONObject
}

func valuesToDocument(values url.Values) model.Document {
	doc := make(model.Document, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			doc[k] = v[0]
		default:
			doc[k] = append([]string(nil), v...)
		}
	}
	return doc
}
