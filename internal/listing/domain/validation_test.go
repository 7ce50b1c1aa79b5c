package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantMsg string
	}{
		{name: "decimal", raw: "15.00", want: 15},
		{name: "trimmed", raw: "  7.5 ", want: 7.5},
		{name: "zero", raw: "0", want: 0},
		{name: "empty", raw: "   ", wantMsg: MsgPriceRequired},
		{name: "negative", raw: "-5", wantMsg: MsgPriceInvalid},
		{name: "not a number", raw: "cheap", wantMsg: MsgPriceInvalid},
		{name: "nan", raw: "NaN", wantMsg: MsgPriceInvalid},
		{name: "infinity", raw: "Inf", wantMsg: MsgPriceInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			if tt.wantMsg != "" {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantMsg, vErr.Message)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Desk Lamp ")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got)

	_, err = ValidateTitle(" \t")
	assert.EqualError(t, err, MsgTitleRequired)
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(nil, 10))
	assert.NoError(t, ValidateImage(&ImageFile{Name: "a.png", ContentType: "image/png", Data: []byte("x")}, 10))
	assert.NoError(t, ValidateImage(&ImageFile{Name: "a.jpg", ContentType: "image/jpeg; charset=binary"}, 10))
	assert.EqualError(t, ValidateImage(&ImageFile{Name: "a.pdf", ContentType: "application/pdf"}, 10), MsgImageType)
	assert.EqualError(t, ValidateImage(&ImageFile{Name: "a.gif", ContentType: "image/gif", Data: make([]byte, 11)}, 10), MsgImageTooLarge)
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "ana@utrgv.edu", (&AuthenticatedUser{ID: "u1", Email: "ana@utrgv.edu"}).DisplayLabel())
	assert.Equal(t, AnonymousLabel, (&AuthenticatedUser{ID: "u1"}).DisplayLabel())
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, &AuthError{Reason: "Invalid session"}, ErrUnauthorized)

	idErr := &IdentityDeletionError{Err: errors.New("boom")}
	assert.ErrorIs(t, idErr, ErrPersistence)
	assert.EqualError(t, idErr, "failed to delete identity: boom")

	assert.False(t, errors.Is(NewValidationError("x"), ErrPersistence))
}
