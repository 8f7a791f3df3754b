package qrcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/qrcode"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("produces png", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.Generate("otpauth://totp/faaxis:advisor@example.com?secret=ABC", 256)
		require.NoError(t, err)
		// PNG magic bytes.
		require.True(t, len(png) > 8)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.Generate("   ", 256)
		require.ErrorIs(t, err, qrcode.ErrEmptyContent)
	})

	t.Run("defaults size", func(t *testing.T) {
		t.Parallel()
		png, err := qrcode.Generate("content", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, png)
	})
}

func TestGenerateDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.GenerateDataURI("otpauth://totp/faaxis:advisor@example.com?secret=ABC", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
