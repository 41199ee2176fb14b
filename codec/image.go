package codec

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// Image decodes texture assets (PNG, JPEG, GIF, BMP, TIFF) into image.Image
// via disintegration/imaging and encodes them in Format. The zero value
// encodes JPEG; use imaging.PNG for lossless textures.
type Image struct {
	Format imaging.Format
}

var _ Codec[image.Image] = Image{}

func (c Image) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, c.Format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode honors EXIF orientation for JPEG textures.
func (Image) Decode(b []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
}
