package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
)

const otpauthScheme = "otpauth://"

// TOTPQRRenderer turns an otpauth:// registration URI into an inline PNG so
// the dashboard can show it directly. Any other URL is passed through.
type TOTPQRRenderer struct {
	Width  int
	Height int
}

func NewTOTPQRRenderer() *TOTPQRRenderer {
	return &TOTPQRRenderer{Width: 200, Height: 200}
}

func (r *TOTPQRRenderer) Render(challenge TwoFactorChallenge) (TwoFactorChallenge, error) {
	if !strings.HasPrefix(strings.ToLower(challenge.QRImageURL), otpauthScheme) {
		return challenge, nil
	}
	key, err := otp.NewKeyFromURL(challenge.QRImageURL)
	if err != nil {
		return challenge, fmt.Errorf("parse otpauth uri: %w", err)
	}
	img, err := key.Image(r.width(), r.height())
	if err != nil {
		return challenge, fmt.Errorf("render qr code: %w", err)
	}
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return challenge, fmt.Errorf("encode qr code: %w", err)
	}

	rendered := TwoFactorChallenge{
		QRImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()),
		Secret:     challenge.Secret,
	}
	if rendered.Secret == "" {
		rendered.Secret = key.Secret()
	}
	return rendered, nil
}

func (r *TOTPQRRenderer) width() int {
	if r.Width <= 0 {
		return 200
	}
	return r.Width
}

func (r *TOTPQRRenderer) height() int {
	if r.Height <= 0 {
		return 200
	}
	return r.Height
}
