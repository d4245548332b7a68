package pagination_test

import (
	"testing"

	"github.com/propops/property_ops_backend/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiFieldTokenRoundTrip(t *testing.T) {
	token := pagination.EncodeMultiFieldToken("2024-04", "some-id")
	fields, err := pagination.DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04", "some-id"}, fields)
}

func TestDecodeMultiFieldTokenSingleField(t *testing.T) {
	token := pagination.EncodeMultiFieldToken("2023-11")
	fields, err := pagination.DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-11"}, fields)
}

func TestDecodeMultiFieldTokenRejectsGarbage(t *testing.T) {
	_, err := pagination.DecodeMultiFieldToken("not base64 at all!!!")
	assert.Error(t, err)
}
