package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Container Number", "container number"},
		{"trim", "  BL Number  ", "bl number"},
		{"collapse whitespace", "Port   of \t Discharge", "port of discharge"},
		{"diacritics", "Numéro de Conteneur", "numero de conteneur"},
		{"mixed", "  ETA   (Estimée)  ", "eta (estimee)"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"punctuation preserved", "Shipper's Full Name", "shipper's full name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.in))
		})
	}
}

func TestNormalizeHeader_Idempotent(t *testing.T) {
	inputs := []string{"Container Number", "  Numéro  de  Conteneur ", "ATA"}
	for _, in := range inputs {
		once := NormalizeHeader(in)
		assert.Equal(t, once, NormalizeHeader(once))
	}
}

func TestCatalogRank(t *testing.T) {
	assert.Equal(t, 0, CatalogRank(FieldContainerNumber))
	assert.Less(t, CatalogRank(FieldBLNumber), CatalogRank(FieldCommodity))
	assert.Equal(t, len(Catalog), CatalogRank("not_a_field"))

	assert.True(t, KnownField(FieldLastFreeDay))
	assert.False(t, KnownField("not_a_field"))
}

func TestIsDateField(t *testing.T) {
	assert.True(t, IsDateField(FieldETA))
	assert.True(t, IsDateField(FieldEmptyReturnDate))
	assert.False(t, IsDateField(FieldContainerNumber))
	assert.False(t, IsDateField(FieldStatus))
}
