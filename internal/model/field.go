package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalField is the single standardized name for a tracking data field,
// independent of any carrier's original header text.
type CanonicalField string

const (
	FieldContainerNumber CanonicalField = "container_number"
	FieldBLNumber        CanonicalField = "bl_number"
	FieldBookingNumber   CanonicalField = "booking_number"
	FieldCarrier         CanonicalField = "carrier"
	FieldVessel          CanonicalField = "vessel"
	FieldVoyage          CanonicalField = "voyage"
	FieldPortOfLoading   CanonicalField = "port_of_loading"
	FieldPortOfDischarge CanonicalField = "port_of_discharge"
	FieldETD             CanonicalField = "etd"
	FieldATD             CanonicalField = "atd"
	FieldETA             CanonicalField = "eta"
	FieldATA             CanonicalField = "ata"
	FieldDischargeDate   CanonicalField = "discharge_date"
	FieldCustomsCleared  CanonicalField = "customs_cleared_date"
	FieldLastFreeDay     CanonicalField = "last_free_day"
	FieldGateOutDate     CanonicalField = "gate_out_date"
	FieldEmptyReturnDate CanonicalField = "empty_return_date"
	FieldStatus          CanonicalField = "status"
	FieldShipperName     CanonicalField = "shipper_name"
	FieldConsigneeName   CanonicalField = "consignee_name"
	FieldDestinationCity CanonicalField = "destination_city"
	FieldBusinessUnit    CanonicalField = "business_unit"
	FieldWeight          CanonicalField = "weight"
	FieldCommodity       CanonicalField = "commodity"
)

// Catalog lists every canonical field in declaration order. The resolver
// breaks equal-confidence ties by picking the field that appears first here.
var Catalog = []CanonicalField{
	FieldContainerNumber,
	FieldBLNumber,
	FieldBookingNumber,
	FieldCarrier,
	FieldVessel,
	FieldVoyage,
	FieldPortOfLoading,
	FieldPortOfDischarge,
	FieldETD,
	FieldATD,
	FieldETA,
	FieldATA,
	FieldDischargeDate,
	FieldCustomsCleared,
	FieldLastFreeDay,
	FieldGateOutDate,
	FieldEmptyReturnDate,
	FieldStatus,
	FieldShipperName,
	FieldConsigneeName,
	FieldDestinationCity,
	FieldBusinessUnit,
	FieldWeight,
	FieldCommodity,
}

var catalogRank = func() map[CanonicalField]int {
	m := make(map[CanonicalField]int, len(Catalog))
	for i, f := range Catalog {
		m[f] = i
	}
	return m
}()

// KnownField reports whether f is part of the canonical catalog.
func KnownField(f CanonicalField) bool {
	_, ok := catalogRank[f]
	return ok
}

// CatalogRank returns the declaration-order index of f, or len(Catalog) for
// fields outside the catalog so unknown fields always lose a tie.
func CatalogRank(f CanonicalField) int {
	if i, ok := catalogRank[f]; ok {
		return i
	}
	return len(Catalog)
}

// dateFields are the canonical fields holding dates, used when deriving the
// typed date view of a unit.
var dateFields = map[CanonicalField]bool{
	FieldETD:             true,
	FieldATD:             true,
	FieldETA:             true,
	FieldATA:             true,
	FieldDischargeDate:   true,
	FieldCustomsCleared:  true,
	FieldLastFreeDay:     true,
	FieldGateOutDate:     true,
	FieldEmptyReturnDate: true,
}

// IsDateField reports whether f carries a date value.
func IsDateField(f CanonicalField) bool {
	return dateFields[f]
}

// stripMarks removes combining marks after NFD decomposition, so accented
// headers from European forwarder exports normalize to plain ASCII.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes a raw header for dictionary and format
// matching: diacritics stripped, lowercased, trimmed, inner runs of
// whitespace collapsed to a single space.
func NormalizeHeader(raw string) string {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		s = raw
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
