package portal

import (
	"encoding/base64"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 200

// TOTPQRCode renders an otpauth:// URI as a PNG data URI for an img tag.
func TOTPQRCode(uri string, size int) (string, error) {
	if !strings.HasPrefix(uri, "otpauth://") {
		return "", goerrors.New("not an otpauth uri", goerrors.CategoryBadInput)
	}
	if size <= 0 {
		size = defaultQRSize
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to render qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
