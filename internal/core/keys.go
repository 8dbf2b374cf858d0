package core

import "fmt"

// Canonical field keys referenced by the derived checks, the encoder and the
// duplicate detector. The full ordered list lives in the carrier catalog.
const (
	KeyName               = "name"
	KeyContactName        = "contactName"
	KeyAddress1           = "address1"
	KeyAddress2           = "address2"
	KeyAddress3           = "address3"
	KeyCity               = "city"
	KeyState              = "state"
	KeyPostalCode         = "postalCode"
	KeyCountry            = "country"
	KeyTelephone          = "telephone"
	KeyExtension          = "extension"
	KeyResidential        = "residential"
	KeyEmail              = "email"
	KeyPackagingType      = "packagingType"
	KeyCustomsValue       = "customsValue"
	KeyWeight             = "weight"
	KeyWeightUnit         = "weightUnit"
	KeyLength             = "length"
	KeyWidth              = "width"
	KeyHeight             = "height"
	KeyDimensionUnit      = "dimensionUnit"
	KeyLargePackage       = "largePackage"
	KeyAdditionalHandling = "additionalHandling"
	KeyServiceCode        = "serviceCode"
	KeyDescription        = "description"
	KeyDeclaredValue      = "declaredValue"
	KeySaturdayDelivery   = "saturdayDelivery"
	KeySignatureRequired  = "signatureRequired"
	KeyDryIceWeight       = "dryIceWeight"
	KeyDangerousGoods     = "dangerousGoods"

	KeyLithiumIonAlone         = "lithiumIonAlone"
	KeyLithiumIonInEquipment   = "lithiumIonInEquipment"
	KeyLithiumIonWithEquipment = "lithiumIonWithEquipment"
	KeyLithiumMetalAlone       = "lithiumMetalAlone"
	KeyLithiumMetalInEquipment = "lithiumMetalInEquipment"
	KeyLithiumMetalWithEquip   = "lithiumMetalWithEquipment"
)

// Synthetic keys carry errors that no single field is responsible for.
const (
	KeyLithiumBatteries = "lithiumBatteries"
	KeyDimensions       = "dimensions"
	KeyRecord           = "record"
)

// Unit codes.
const (
	UnitKilogram   = "KG"
	UnitPound      = "LB"
	UnitCentimeter = "CM"
	UnitInch       = "IN"
)

// NotificationBlocks is the number of notification e-mail blocks in the catalog.
const NotificationBlocks = 5

// LithiumKeys lists the six lithium-battery indicator fields.
var LithiumKeys = []string{
	KeyLithiumIonAlone,
	KeyLithiumIonInEquipment,
	KeyLithiumIonWithEquipment,
	KeyLithiumMetalAlone,
	KeyLithiumMetalInEquipment,
	KeyLithiumMetalWithEquip,
}

// IdentityKeys are the minimal recipient identity fields. A row missing all of
// them is critical.
var IdentityKeys = []string{KeyName, KeyAddress1, KeyCity, KeyCountry, KeyPostalCode}

// ReferenceKey returns the key of reference number n (1-3).
func ReferenceKey(n int) string { return fmt.Sprintf("reference%d", n) }

// NotifyEmailKey returns the e-mail key of notification block n (1-5).
func NotifyEmailKey(n int) string { return fmt.Sprintf("notify%dEmail", n) }

// NotifyShipKey returns the ship-notification flag key of block n.
func NotifyShipKey(n int) string { return fmt.Sprintf("notify%dShip", n) }

// NotifyDeliveryKey returns the delivery-notification flag key of block n.
func NotifyDeliveryKey(n int) string { return fmt.Sprintf("notify%dDelivery", n) }
