package decode_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aretw0/slicer/internal/decode"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64_RoundTripAcrossWindows(t *testing.T) {
	raw := bytes.Repeat([]byte{0x00, 0x7f, 0xff, 0x10, 0x42}, 1000)
	encoded := base64.StdEncoding.EncodeToString(raw)

	var steps []int
	out, err := decode.Base64(encoded, 400, func(done, total int) error {
		assert.Equal(t, len(encoded), total)
		steps = append(steps, done)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	// One step per window, the last one covering the whole input
	wantSteps := (len(encoded) + 399) / 400
	assert.Len(t, steps, wantSteps)
	assert.Equal(t, len(encoded), steps[len(steps)-1])
	for i := 1; i < len(steps); i++ {
		assert.Greater(t, steps[i], steps[i-1])
	}
}

func TestBase64_DataURIAndWhitespace(t *testing.T) {
	raw := []byte("solid-but-binary")
	encoded := base64.StdEncoding.EncodeToString(raw)
	wrapped := "data:model/stl;base64," + encoded[:8] + "\r\n" + encoded[8:]

	out, err := decode.Base64(wrapped, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestBase64_MissingPadding(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	encoded := base64.RawStdEncoding.EncodeToString(raw)

	out, err := decode.Base64(encoded, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestBase64_InvalidCharacter(t *testing.T) {
	raw := bytes.Repeat([]byte{9}, 300)
	encoded := []byte(base64.StdEncoding.EncodeToString(raw))
	encoded[250] = '*'

	var steps []int
	_, err := decode.Base64(string(encoded), 100, func(done, total int) error {
		steps = append(steps, done)
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.Contains(t, err.Error(), "input byte 250")
	// Windows before the bad one were reported, nothing after
	assert.Equal(t, []int{100, 200}, steps)
}

func TestBase64_Malformed(t *testing.T) {
	cases := map[string]string{
		"single trailing char": "QUJD" + "Q",
		"padding mid stream":   "QQ==QUJD",
		"bad data uri":         "data:model/stl,QUJD",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode.Base64(input, 4, nil)
			assert.ErrorIs(t, err, domain.ErrDecode)
		})
	}
}

func TestBase64_StepErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	_, err := decode.Base64(base64.StdEncoding.EncodeToString(make([]byte, 30)), 8, func(done, total int) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestBase64_InvalidWindow(t *testing.T) {
	_, err := decode.Base64("QUJD", 6, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDecode))
}
