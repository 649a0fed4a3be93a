package portal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPQRCode(t *testing.T) {
	data, err := TOTPQRCode(testTOTPURI, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
	assert.Greater(t, len(data), len("data:image/png;base64,"))

	_, err = TOTPQRCode("https://example.com", 200)
	assert.Error(t, err)

	assert.Empty(t, qrCodeHelper(""))
	assert.NotEmpty(t, qrCodeHelper(testTOTPURI))
}
