package core

import "strings"

// testCatalog is a small catalog exercising every field feature.
func testCatalog() *Catalog {
	return NewCatalog([]FieldSpec{
		{Key: KeyName, ExternalName: "Company or Name", Label: "Recipient name", Required: Always, MaxLength: 35},
		{Key: KeyAddress1, ExternalName: "Address 1", Required: Always, MaxLength: 35},
		{Key: KeyCity, ExternalName: "City", Required: Always, MaxLength: 30},
		{
			Key:           KeyState,
			ExternalName:  "State/Prov/Other",
			Label:         "State",
			Required:      When(Or{Conds: []Cond{CountryIn{Codes: []string{"US", "CA"}}, ProfileRequiresState{}}}),
			PatternSource: PatternState,
			Normalizer:    strings.ToUpper,
		},
		{Key: KeyPostalCode, ExternalName: "Postal Code", Required: Always, MaxLength: 10, PatternSource: PatternPostal},
		{Key: KeyCountry, ExternalName: "Country", Required: Always, MaxLength: 2, Pattern: `[A-Z]{2}`, Normalizer: strings.ToUpper},
		{Key: KeyTelephone, ExternalName: "Telephone", Required: When(International()), MaxLength: 15, Aliases: []string{"phone"}},
		{Key: KeyEmail, ExternalName: "E-mail Address", Kind: KindEmail, MaxLength: 50},
		{Key: KeyResidential, ExternalName: "Residential Indicator", Boolean: true},
		{
			Key:          KeyPackagingType,
			ExternalName: "Packaging Type",
			Kind:         KindSelect,
			Required:     Always,
			Options:      []Option{{Code: "2", Label: "Package"}, {Code: "1", Label: "Letter"}},
			Default:      "2",
		},
		{Key: KeyCustomsValue, ExternalName: "Customs Value", Kind: KindNumber, Min: Bound(0), Max: Bound(99999)},
		{Key: KeyWeight, ExternalName: "Weight", Kind: KindNumber, Required: Always, Min: Bound(0.1), Max: Bound(150)},
		{
			Key:          KeyWeightUnit,
			ExternalName: "Weight Unit",
			Kind:         KindSelect,
			Options:      []Option{{Code: UnitKilogram}, {Code: UnitPound}},
			Derive: &Derivation{Authority: FillMissing, Func: func(rec ShipmentRecord, env RuleEnv) (Value, bool) {
				return TextValue(WeightUnit(rec, env.Profile)), true
			}},
		},
		{Key: KeyLength, ExternalName: "Length", Kind: KindNumber, Min: Bound(1), Required: When(FieldEquals{Key: KeyPackagingType, Value: "2"})},
		{Key: KeyWidth, ExternalName: "Width", Kind: KindNumber, Min: Bound(1), Required: When(FieldEquals{Key: KeyPackagingType, Value: "2"})},
		{Key: KeyHeight, ExternalName: "Height", Kind: KindNumber, Min: Bound(1), Required: When(FieldEquals{Key: KeyPackagingType, Value: "2"})},
		{
			Key:          KeyDimensionUnit,
			ExternalName: "Dimension Unit",
			Kind:         KindSelect,
			Options:      []Option{{Code: UnitCentimeter}, {Code: UnitInch}},
			Derive: &Derivation{Authority: FillMissing, Func: func(rec ShipmentRecord, env RuleEnv) (Value, bool) {
				return TextValue(DimensionUnit(rec, env.Profile)), true
			}},
		},
		{
			Key:          KeyLargePackage,
			ExternalName: "Large Package",
			Boolean:      true,
			Derive: &Derivation{Authority: AlwaysRecompute, Func: func(rec ShipmentRecord, env RuleEnv) (Value, bool) {
				dims, ok := MeasureDimensions(rec, env.Profile)
				return BoolValue(ok && dims.Large()), true
			}},
		},
		{Key: KeyServiceCode, ExternalName: "Service", Kind: KindSelect, Options: []Option{{Code: "11"}, {Code: "01"}, {Code: "03"}}, Default: "11"},
		{Key: KeyDescription, ExternalName: "Description of Goods", Required: When(International()), MaxLength: 35},
		{Key: KeyDeclaredValue, ExternalName: "Declared Value", Kind: KindNumber},
		{Key: KeySaturdayDelivery, ExternalName: "Saturday Delivery", Boolean: true},
		{Key: KeyDryIceWeight, ExternalName: "Dry Ice Weight", Kind: KindNumber},
		{Key: KeyLithiumIonAlone, ExternalName: "Lithium Ion Alone", Boolean: true},
		{Key: KeyLithiumIonInEquipment, ExternalName: "Lithium Ion In Equipment", Boolean: true},
		{Key: KeyLithiumIonWithEquipment, ExternalName: "Lithium Ion With Equipment", Boolean: true},
		{Key: KeyLithiumMetalAlone, ExternalName: "Lithium Metal Alone", Boolean: true},
		{Key: KeyLithiumMetalInEquipment, ExternalName: "Lithium Metal In Equipment", Boolean: true},
		{Key: KeyLithiumMetalWithEquip, ExternalName: "Lithium Metal With Equipment", Boolean: true},
		{Key: NotifyEmailKey(1), ExternalName: "Notification 1 E-mail", Kind: KindEmail, Required: When(Or{Conds: []Cond{FieldTrue{Key: NotifyShipKey(1)}, FieldTrue{Key: NotifyDeliveryKey(1)}}})},
		{Key: NotifyShipKey(1), ExternalName: "Notification 1 Ship Notification", Boolean: true},
		{Key: NotifyDeliveryKey(1), ExternalName: "Notification 1 Delivery Notification", Boolean: true},
	})
}

func testProfiles() *ProfileTable {
	return MustProfileTable([]CountryProfile{
		{CountryCode: "US", PostalCodePattern: `\d{5}(-\d{4})?`, StatePattern: `[A-Z]{2}`, StateRequired: true, DefaultWeightUnit: UnitPound, DefaultDimensionUnit: UnitInch},
		{CountryCode: "DE", PostalCodePattern: `\d{5}`},
		{CountryCode: "AU", PostalCodePattern: `\d{4}`, StateRequired: true},
	})
}

func testEnv() Env {
	return Env{Catalog: testCatalog(), Profiles: testProfiles(), HomeCountry: "US"}
}

// usRecord is a complete, valid domestic shipment.
func usRecord(id int64) ShipmentRecord {
	rec := NewRecord(id)
	rec.Fields[KeyName] = TextValue("Acme Corp")
	rec.Fields[KeyAddress1] = TextValue("1 Main St")
	rec.Fields[KeyCity] = TextValue("Springfield")
	rec.Fields[KeyState] = TextValue("IL")
	rec.Fields[KeyPostalCode] = TextValue("62701")
	rec.Fields[KeyCountry] = TextValue("US")
	rec.Fields[KeyTelephone] = TextValue("2175550100")
	rec.Fields[KeyEmail] = TextValue("ship@acme.example")
	rec.Fields[KeyPackagingType] = TextValue("2")
	rec.Fields[KeyWeight] = NumberValue(5)
	rec.Fields[KeyWeightUnit] = TextValue(UnitKilogram)
	rec.Fields[KeyLength] = NumberValue(30)
	rec.Fields[KeyWidth] = NumberValue(20)
	rec.Fields[KeyHeight] = NumberValue(10)
	rec.Fields[KeyDimensionUnit] = TextValue(UnitCentimeter)
	rec.Fields[KeyServiceCode] = TextValue("11")
	return rec
}
