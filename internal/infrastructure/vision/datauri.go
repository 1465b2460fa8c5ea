package vision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const dataScheme = "data:"

// IsDataURI сообщает, что строка является data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, dataScheme)
}

// EncodeDataURI кодирует данные в base64 data URI.
func EncodeDataURI(mediaType string, data []byte) string {
	return dataScheme + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI разбирает data URI и возвращает тип и содержимое.
// Без указания типа используется text/plain, как в RFC 2397.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !IsDataURI(uri) {
		return "", nil, errors.New("not a data URI")
	}

	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, dataScheme), ",")
	if !ok {
		return "", nil, errors.New("malformed data URI: missing comma")
	}

	isBase64 := false
	if strings.HasSuffix(meta, ";base64") {
		isBase64 = true
		meta = strings.TrimSuffix(meta, ";base64")
	}

	mediaType := meta
	if mediaType == "" || strings.HasPrefix(mediaType, ";") {
		mediaType = "text/plain" + mediaType
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// некоторые кодеры отдают base64 без паддинга
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return "", nil, fmt.Errorf("decode base64 payload: %w", err)
			}
		}
		return mediaType, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("unescape payload: %w", err)
	}
	return mediaType, []byte(decoded), nil
}
