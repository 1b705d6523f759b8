package billing

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertcolmenero/invoicehub/apperr"
)

func TestReadShareToken(t *testing.T) {
	token, err := readShareToken(bytes.NewReader(bytes.Repeat([]byte{0xab}, shareTokenBytes)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", shareTokenBytes), token)
	assert.True(t, validShareToken(token))
}

func TestReadShareTokenEntropyFailure(t *testing.T) {
	sources := map[string]func() error{
		"reader error": func() error {
			_, err := readShareToken(iotest.ErrReader(errors.New("entropy exhausted")))
			return err
		},
		"short read": func() error {
			_, err := readShareToken(bytes.NewReader([]byte{1, 2, 3}))
			return err
		},
	}
	for name, read := range sources {
		t.Run(name, func(t *testing.T) {
			err := read()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInternal))
			assert.False(t, errors.Is(err, apperr.ErrDatabase))
			assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
		})
	}
}
