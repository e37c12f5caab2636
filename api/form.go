package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/MrEthical07/goTeam/model"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field  string
	upload model.Upload
}

// form accumulates a multipart/form-data body in insertion order.
type form struct {
	fields []formField
	files  []formFile
	err    error
}

func newForm() *form { return &form{} }

func (f *form) field(name, value string) *form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

func (f *form) fieldIf(name, value string) *form {
	if value == "" {
		return f
	}
	return f.field(name, value)
}

func (f *form) csv(name string, values []string) *form {
	return f.field(name, strings.Join(values, ","))
}

func (f *form) jsonField(name string, v any) *form {
	raw, err := json.Marshal(v)
	if err != nil {
		f.err = err
		return f
	}
	return f.field(name, string(raw))
}

func (f *form) file(field string, upload *model.Upload) *form {
	if upload == nil {
		return f
	}
	f.files = append(f.files, formFile{field: field, upload: *upload})
	return f
}

func (f *form) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, ff := range f.files {
		name := ff.upload.Name
		if name == "" {
			name = "upload"
		}
		part, err := w.CreateFormFile(ff.field, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(ff.upload.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
