// Package carrier holds the static carrier tables: the ordered Field Catalog
// and the Country Profile Table. Both are built once and never modified.
package carrier

import (
	"fmt"

	"github.com/JonMunkholm/shipbatch/internal/core"
)

// DefaultHomeCountry is the origin country assumed when none is configured.
const DefaultHomeCountry = "US"

// PackagingTypes are the carrier packaging codes. Dimensions are only
// required for customer-supplied packaging ("2").
var PackagingTypes = []core.Option{
	{Code: "2", Label: "Customer supplied package"},
	{Code: "1", Label: "Letter"},
	{Code: "3", Label: "Tube"},
	{Code: "4", Label: "Pak"},
	{Code: "21", Label: "Express box"},
	{Code: "24", Label: "25 kg box"},
	{Code: "25", Label: "10 kg box"},
}

// ServiceCodes are the carrier service levels.
var ServiceCodes = []core.Option{
	{Code: "11", Label: "Standard"},
	{Code: "03", Label: "Ground"},
	{Code: "12", Label: "3 Day Select"},
	{Code: "02", Label: "2nd Day Air"},
	{Code: "59", Label: "2nd Day Air A.M."},
	{Code: "13", Label: "Next Day Air Saver"},
	{Code: "01", Label: "Next Day Air"},
	{Code: "14", Label: "Next Day Air Early"},
	{Code: "65", Label: "Worldwide Saver"},
	{Code: "08", Label: "Worldwide Expedited"},
	{Code: "07", Label: "Worldwide Express"},
	{Code: "54", Label: "Worldwide Express Plus"},
}

// WeightUnits and DimensionUnits are the accepted unit codes.
var (
	WeightUnits = []core.Option{
		{Code: core.UnitKilogram, Label: "Kilograms"},
		{Code: core.UnitPound, Label: "Pounds"},
	}
	DimensionUnits = []core.Option{
		{Code: core.UnitCentimeter, Label: "Centimeters"},
		{Code: core.UnitInch, Label: "Inches"},
	}
)

var catalog = core.NewCatalog(fieldSpecs())

// Catalog returns the carrier Field Catalog.
func Catalog() *core.Catalog { return catalog }

// fieldSpecs lists every carrier field in output order. The order is the
// carrier's file layout and must not change.
func fieldSpecs() []core.FieldSpec {
	specs := []core.FieldSpec{
		{Key: core.KeyName, ExternalName: "Company or Name", Label: "Recipient name", Required: core.Always, MaxLength: 35},
		{Key: core.KeyContactName, ExternalName: "Contact Name", Label: "Contact person", MaxLength: 35},
		{Key: core.KeyAddress1, ExternalName: "Address 1", Label: "Street address", Required: core.Always, MaxLength: 35},
		{Key: core.KeyAddress2, ExternalName: "Address 2", Label: "Address line 2", MaxLength: 35},
		{Key: core.KeyAddress3, ExternalName: "Address 3", Label: "Address line 3", MaxLength: 35},
		{Key: core.KeyCity, ExternalName: "City", Label: "City / town", Required: core.Always, MaxLength: 30},
		{
			Key:           core.KeyState,
			ExternalName:  "State/Prov/Other",
			Label:         "State",
			Required:      core.When(core.Or{Conds: []core.Cond{core.CountryIn{Codes: []string{"US", "CA"}}, core.ProfileRequiresState{}}}),
			MaxLength:     5,
			PatternSource: core.PatternState,
			Normalizer:    NormalizeState,
		},
		{
			Key:           core.KeyPostalCode,
			ExternalName:  "Postal Code",
			Label:         "ZIP / postal code",
			Required:      core.Always,
			MaxLength:     10,
			Pattern:       `[A-Z0-9][A-Z0-9 -]{1,9}`,
			PatternSource: core.PatternPostal,
			Normalizer:    NormalizePostalCode,
		},
		{
			Key:          core.KeyCountry,
			ExternalName: "Country",
			Label:        "Country code",
			Required:     core.Always,
			MaxLength:    2,
			Pattern:      `[A-Z]{2}`,
			Normalizer:   NormalizeCountry,
		},
		{
			Key:           core.KeyTelephone,
			ExternalName:  "Telephone",
			Label:         "Phone number",
			Required:      core.When(core.International()),
			MaxLength:     15,
			Pattern:       `\+?\d{6,14}`,
			PatternSource: core.PatternPhone,
			Aliases:       []string{"phone"},
			Normalizer:    NormalizePhone,
		},
		{Key: core.KeyExtension, ExternalName: "Extension", Label: "Phone extension", MaxLength: 4, Pattern: `\d{1,4}`},
		{Key: core.KeyResidential, ExternalName: "Residential Indicator", Label: "Residential address", Boolean: true},
		{Key: core.KeyEmail, ExternalName: "E-mail Address", Label: "Recipient e-mail", Kind: core.KindEmail, MaxLength: 50, Aliases: []string{"mail"}},
		{
			Key:          core.KeyPackagingType,
			ExternalName: "Packaging Type",
			Label:        "Package type",
			Kind:         core.KindSelect,
			Required:     core.Always,
			Options:      PackagingTypes,
			Default:      "2",
		},
		{Key: core.KeyCustomsValue, ExternalName: "Customs Value", Label: "Value for customs", Kind: core.KindNumber, Min: core.Bound(0), Max: core.Bound(99999)},
		{Key: core.KeyWeight, ExternalName: "Weight", Label: "Package weight", Kind: core.KindNumber, Required: core.Always, Min: core.Bound(0.1), Max: core.Bound(150)},
		{
			Key:          core.KeyWeightUnit,
			ExternalName: "Weight Unit",
			Label:        "Unit of weight",
			Kind:         core.KindSelect,
			Options:      WeightUnits,
			Derive:       &core.Derivation{Func: deriveWeightUnit, Authority: core.FillMissing},
			Normalizer:   NormalizeWeightUnit,
		},
		dimensionSpec(core.KeyLength, "Length", "Package length"),
		dimensionSpec(core.KeyWidth, "Width", "Package width"),
		dimensionSpec(core.KeyHeight, "Height", "Package height"),
		{
			Key:          core.KeyDimensionUnit,
			ExternalName: "Dimension Unit",
			Label:        "Unit of length",
			Kind:         core.KindSelect,
			Options:      DimensionUnits,
			Derive:       &core.Derivation{Func: deriveDimensionUnit, Authority: core.FillMissing},
			Normalizer:   NormalizeDimensionUnit,
		},
		{
			Key:          core.KeyLargePackage,
			ExternalName: "Large Package",
			Label:        "Oversize package",
			Boolean:      true,
			Derive:       &core.Derivation{Func: deriveLargePackage, Authority: core.AlwaysRecompute},
		},
		{Key: core.KeyAdditionalHandling, ExternalName: "Additional Handling", Label: "Needs additional handling", Boolean: true},
		{
			Key:          core.KeyServiceCode,
			ExternalName: "Service",
			Label:        "Service level",
			Kind:         core.KindSelect,
			Required:     core.Always,
			Options:      ServiceCodes,
			Default:      "11",
		},
		{Key: core.KeyDescription, ExternalName: "Description of Goods", Label: "Goods description", Required: core.When(core.International()), MaxLength: 35},
		{Key: core.KeyDeclaredValue, ExternalName: "Declared Value", Label: "Insured value", Kind: core.KindNumber},
		{Key: core.KeySaturdayDelivery, ExternalName: "Saturday Delivery", Label: "Deliver on Saturday", Boolean: true},
		{Key: core.KeySignatureRequired, ExternalName: "Signature Required", Label: "Require signature", Boolean: true},
	}

	for n := 1; n <= 3; n++ {
		specs = append(specs, core.FieldSpec{
			Key:          core.ReferenceKey(n),
			ExternalName: fmt.Sprintf("Reference %d", n),
			Label:        fmt.Sprintf("Reference number %d", n),
			MaxLength:    35,
		})
	}

	specs = append(specs,
		core.FieldSpec{Key: core.KeyDryIceWeight, ExternalName: "Dry Ice Weight", Label: "Dry ice (kg)", Kind: core.KindNumber},
		core.FieldSpec{Key: core.KeyDangerousGoods, ExternalName: "Dangerous Goods", Label: "Contains dangerous goods", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumIonAlone, ExternalName: "Lithium Ion Alone", Label: "Lithium ion batteries (alone)", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumIonInEquipment, ExternalName: "Lithium Ion In Equipment", Label: "Lithium ion batteries (in equipment)", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumIonWithEquipment, ExternalName: "Lithium Ion With Equipment", Label: "Lithium ion batteries (packed with equipment)", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumMetalAlone, ExternalName: "Lithium Metal Alone", Label: "Lithium metal batteries (alone)", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumMetalInEquipment, ExternalName: "Lithium Metal In Equipment", Label: "Lithium metal batteries (in equipment)", Boolean: true},
		core.FieldSpec{Key: core.KeyLithiumMetalWithEquip, ExternalName: "Lithium Metal With Equipment", Label: "Lithium metal batteries (packed with equipment)", Boolean: true},
	)

	for n := 1; n <= core.NotificationBlocks; n++ {
		ship, delivery := core.NotifyShipKey(n), core.NotifyDeliveryKey(n)
		specs = append(specs,
			core.FieldSpec{
				Key:          core.NotifyEmailKey(n),
				ExternalName: fmt.Sprintf("Notification %d E-mail", n),
				Label:        fmt.Sprintf("Notify e-mail %d", n),
				Kind:         core.KindEmail,
				MaxLength:    50,
				Required:     core.When(core.Or{Conds: []core.Cond{core.FieldTrue{Key: ship}, core.FieldTrue{Key: delivery}}}),
			},
			core.FieldSpec{
				Key:          ship,
				ExternalName: fmt.Sprintf("Notification %d Ship Notification", n),
				Label:        fmt.Sprintf("Notify %d on shipment", n),
				Boolean:      true,
			},
			core.FieldSpec{
				Key:          delivery,
				ExternalName: fmt.Sprintf("Notification %d Delivery Notification", n),
				Label:        fmt.Sprintf("Notify %d on delivery", n),
				Boolean:      true,
			},
		)
	}

	return specs
}

func dimensionSpec(key, external, label string) core.FieldSpec {
	return core.FieldSpec{
		Key:          key,
		ExternalName: external,
		Label:        label,
		Kind:         core.KindNumber,
		Required:     core.When(core.FieldEquals{Key: core.KeyPackagingType, Value: "2"}),
		Min:          core.Bound(1),
	}
}

func deriveWeightUnit(rec core.ShipmentRecord, env core.RuleEnv) (core.Value, bool) {
	return core.TextValue(core.WeightUnit(rec, env.Profile)), true
}

func deriveDimensionUnit(rec core.ShipmentRecord, env core.RuleEnv) (core.Value, bool) {
	return core.TextValue(core.DimensionUnit(rec, env.Profile)), true
}

// deriveLargePackage is recomputed on every export; packages without full
// dimensions are never large.
func deriveLargePackage(rec core.ShipmentRecord, env core.RuleEnv) (core.Value, bool) {
	dims, ok := core.MeasureDimensions(rec, env.Profile)
	if !ok {
		return core.BoolValue(false), true
	}
	return core.BoolValue(dims.Large()), true
}
