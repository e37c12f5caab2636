package model

// FileType classifies stored files (image, document...).
type FileType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// File is an uploaded object served by the file service.
type File struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	CreatedAt string   `json:"createdAt"`
	FileType  FileType `json:"fileType"`
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Name    string
	Content []byte
}
