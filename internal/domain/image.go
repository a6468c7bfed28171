package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// contentTypes maps allowed image extensions to their MIME types.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Image is a stored image blob with its metadata.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

// NewImage validates the filename and builds an image value. The content type
// is derived from the extension.
func NewImage(name string, data []byte, uploadedAt time.Time) (Image, error) {
	ct, err := ContentTypeFor(name)
	if err != nil {
		return Image{}, err
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty image data", ErrInvalidImage)
	}
	return Image{Name: name, ContentType: ct, Data: data, UploadedAt: uploadedAt}, nil
}

// ContentTypeFor returns the MIME type for a filename, or ErrInvalidImage
// when the extension is not allowed or the name is unsafe.
func ContentTypeFor(name string) (string, error) {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, " \t\n") {
		return "", fmt.Errorf("%w: bad filename %q", ErrInvalidImage, name)
	}
	ext := strings.ToLower(path.Ext(name))
	ct, ok := contentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidImage, ext)
	}
	return ct, nil
}
