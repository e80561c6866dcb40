package formats

import "github.com/clearhaul/freight-cli/internal/model"

// builtinFormats are the layouts verified in production so far. The standard
// format covers the TMS export most forwarders produce; the ocean-tracking
// format covers direct carrier tracking extracts.
var builtinFormats = []FormatDefinition{
	{
		ID:   "standard-tms",
		Name: "Standard TMS Export",
		RequiredHeaders: []string{
			"business unit",
			"containernumber",
			"shipper",
			"ship to city",
			"atd",
		},
		ColumnMapping: map[string]model.CanonicalField{
			"business unit":          model.FieldBusinessUnit,
			"containernumber":        model.FieldContainerNumber,
			"shipper's full name":    model.FieldShipperName,
			"consignee's full name":  model.FieldConsigneeName,
			"ship to city":           model.FieldDestinationCity,
			"actual departure (atd)": model.FieldATD,
			"estimated arrival":      model.FieldETA,
			"actual arrival (ata)":   model.FieldATA,
			"bl number":              model.FieldBLNumber,
			"booking number":         model.FieldBookingNumber,
			"carrier":                model.FieldCarrier,
			"vessel":                 model.FieldVessel,
			"voyage":                 model.FieldVoyage,
			"port of loading":        model.FieldPortOfLoading,
			"port of discharge":      model.FieldPortOfDischarge,
			"last free day":          model.FieldLastFreeDay,
			"gate out":               model.FieldGateOutDate,
			"empty return":           model.FieldEmptyReturnDate,
			"shipment status":        model.FieldStatus,
			"gross weight":           model.FieldWeight,
			"commodity":              model.FieldCommodity,
		},
		Transforms: map[model.CanonicalField]TransformFunc{
			model.FieldETD:             normalizeDate,
			model.FieldATD:             normalizeDate,
			model.FieldETA:             normalizeDate,
			model.FieldATA:             normalizeDate,
			model.FieldLastFreeDay:     normalizeDate,
			model.FieldGateOutDate:     normalizeDate,
			model.FieldEmptyReturnDate: normalizeDate,
			model.FieldContainerNumber: transformRegistry["upper"],
			model.FieldWeight:          normalizeMoney,
		},
	},
	{
		ID:   "ocean-tracking",
		Name: "Ocean Carrier Tracking Extract",
		RequiredHeaders: []string{
			"container no",
			"bill of lading",
			"vessel",
			"discharge port",
			"last free day",
		},
		ColumnMapping: map[string]model.CanonicalField{
			"container no":    model.FieldContainerNumber,
			"bill of lading":  model.FieldBLNumber,
			"vessel":          model.FieldVessel,
			"voyage no":       model.FieldVoyage,
			"load port":       model.FieldPortOfLoading,
			"discharge port":  model.FieldPortOfDischarge,
			"eta":             model.FieldETA,
			"ata":             model.FieldATA,
			"discharged":      model.FieldDischargeDate,
			"customs release": model.FieldCustomsCleared,
			"last free day":   model.FieldLastFreeDay,
			"gate out date":   model.FieldGateOutDate,
			"empty returned":  model.FieldEmptyReturnDate,
			"current status":  model.FieldStatus,
		},
		Transforms: map[model.CanonicalField]TransformFunc{
			model.FieldETA:             normalizeDate,
			model.FieldATA:             normalizeDate,
			model.FieldDischargeDate:   normalizeDate,
			model.FieldCustomsCleared:  normalizeDate,
			model.FieldLastFreeDay:     normalizeDate,
			model.FieldGateOutDate:     normalizeDate,
			model.FieldEmptyReturnDate: normalizeDate,
			model.FieldContainerNumber: transformRegistry["upper"],
		},
	},
}
