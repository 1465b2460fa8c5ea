//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// render декодирует и уменьшает снимок через OpenCV.
func (p *Previewer) render(data []byte) ([]byte, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}

	w, h := fitWithin(mat.Cols(), mat.Rows(), p.MaxSide)
	if w == mat.Cols() && h == mat.Rows() {
		return encodeJPEG(mat, p.Quality)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	return encodeJPEG(resized, p.Quality)
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// NativeByteBuffer освобождается в Close, копируем данные
	return append([]byte(nil), buf.GetBytes()...), nil
}
