package entity

import "net/http"

// ImageFile исходный файл снимка, выбранный оператором.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewImageFile создаёт файл снимка. Если тип не указан, он определяется по содержимому.
func NewImageFile(name, contentType string, data []byte) ImageFile {
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	if name == "" {
		name = "image"
	}
	return ImageFile{Name: name, ContentType: contentType, Data: data}
}

// Empty сообщает, что в файле нет данных.
func (f ImageFile) Empty() bool {
	return len(f.Data) == 0
}

// Size размер файла в байтах.
func (f ImageFile) Size() int {
	return len(f.Data)
}
