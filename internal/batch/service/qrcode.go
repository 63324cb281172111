package service

import (
	"encoding/base64"
	"image/color"

	"github.com/skip2/go-qrcode"
)

const (
	// DefaultQRSize is the pixel width used for the stored data URL.
	DefaultQRSize = 200
	MaxQRSize     = 1024
)

var (
	qrForeground = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	qrBackground = color.White
)

// renderQR encodes content as a green-on-white PNG.
func renderQR(content string, size int) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.ForegroundColor = qrForeground
	q.BackgroundColor = qrBackground
	return q.PNG(size)
}

func qrDataURL(content string, size int) (string, error) {
	png, err := renderQR(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
