package qr

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// DataURI renders data as a 256px QR PNG and returns it as a data URI for
// direct embedding in clients.
func DataURI(data string) (string, error) {
	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PNG renders data as a QR PNG of the given size.
func PNG(data string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(data, qrcode.Medium, size)
}
