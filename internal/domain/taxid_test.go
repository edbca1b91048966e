package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "formatted CPF", input: "123.456.789-00", want: "12345678900"},
		{name: "bare CPF", input: "12345678900", want: "12345678900"},
		{name: "formatted CNPJ", input: "12.345.678/0001-95", want: "12345678000195"},
		{name: "bare CNPJ", input: "12345678000195", want: "12345678000195"},
		{name: "CPF with spaces", input: " 123 456 789 00 ", want: "12345678900"},
		{name: "too short", input: "12.345", wantErr: true},
		{name: "between CPF and CNPJ length", input: "123456789001", wantErr: true},
		{name: "too long", input: "123456780001950", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTaxID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, EINVALID, ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCompanyTaxID(t *testing.T) {
	assert.False(t, IsCompanyTaxID("12345678900"))
	assert.True(t, IsCompanyTaxID("12345678000195"))
}
