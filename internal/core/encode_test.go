package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedClock = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600)) }

func testEncoder() *Encoder {
	return NewEncoder(testEnv(), WithClock(fixedClock))
}

func headerNames(cat *Catalog) []string {
	fields := cat.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.ExternalName
	}
	return out
}

func TestFormatByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "csv", want: "csv"},
		{name: " SSV ", want: "ssv"},
		{name: "Xml", want: "xml"},
		{name: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FormatByName(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("FormatByName(%q) error = %v, want ErrUnknownFormat", tt.name, err)
			}
			continue
		}
		if err != nil || got.Name != tt.want {
			t.Errorf("FormatByName(%q) = %q, %v, want %q", tt.name, got.Name, err, tt.want)
		}
	}
}

func TestEncode_CatalogUnavailable(t *testing.T) {
	enc := NewEncoder(Env{Profiles: testProfiles()})
	if _, err := enc.Encode([]ShipmentRecord{usRecord(1)}, FormatCSV); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("Encode() error = %v, want ErrCatalogUnavailable", err)
	}
}

func TestEncode_DelimitedLayout(t *testing.T) {
	enc := testEncoder()
	cat := testCatalog()

	out, err := enc.Encode([]ShipmentRecord{usRecord(1), usRecord(2)}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if out.Records != 2 {
		t.Errorf("Records = %d, want 2", out.Records)
	}

	text := string(out.Data)
	if strings.HasPrefix(text, utf8BOM) {
		t.Error("csv output must not start with a BOM")
	}
	if !strings.HasSuffix(text, "\r\n") {
		t.Error("rows must end with CRLF")
	}

	lines := strings.Split(strings.TrimSuffix(text, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != strings.Join(headerNames(cat), ",") {
		t.Errorf("header = %q", lines[0])
	}
	for i, line := range lines[1:] {
		if n := strings.Count(line, ",") + 1; n != cat.Len() {
			t.Errorf("row %d has %d cells, want %d", i+1, n, cat.Len())
		}
	}
	if !strings.HasPrefix(lines[1], "Acme Corp,1 Main St,Springfield,IL,62701,US,") {
		t.Errorf("row starts %q", lines[1][:40])
	}
}

func TestEncode_SemicolonWithBOM(t *testing.T) {
	out, err := testEncoder().Encode([]ShipmentRecord{usRecord(1)}, FormatSSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.HasPrefix(out.Data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("ssv output must start with a UTF-8 BOM")
	}
	header := strings.SplitN(strings.TrimPrefix(string(out.Data), utf8BOM), "\r\n", 2)[0]
	if !strings.HasPrefix(header, "Company or Name;Address 1;City;") {
		t.Errorf("header = %q", header)
	}
	if out.FileName("batch") != "batch.ssv" {
		t.Errorf("FileName() = %q", out.FileName("batch"))
	}
}

func TestEncode_Escaping(t *testing.T) {
	rec := usRecord(1).With(KeyName, TextValue(`He said "hi", ok`))

	out, err := testEncoder().Encode([]ShipmentRecord{rec}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(out.Data), "\r\n\"He said \"\"hi\"\", ok\",1 Main St,") {
		t.Errorf("cell not escaped: %q", out.Data)
	}
}

func TestEscapeDelimited(t *testing.T) {
	tests := []struct {
		cell string
		sep  rune
		want string
	}{
		{cell: "plain", sep: ',', want: "plain"},
		{cell: "a,b", sep: ',', want: `"a,b"`},
		{cell: "a,b", sep: ';', want: "a,b"},
		{cell: "a;b", sep: ';', want: `"a;b"`},
		{cell: `say "x"`, sep: ',', want: `"say ""x"""`},
		{cell: "two\nlines", sep: ',', want: "\"two\nlines\""},
		{cell: "", sep: ',', want: ""},
	}
	for _, tt := range tests {
		if got := EscapeDelimited(tt.cell, tt.sep); got != tt.want {
			t.Errorf("EscapeDelimited(%q, %q) = %q, want %q", tt.cell, tt.sep, got, tt.want)
		}
	}
}

func TestEncode_Tagged(t *testing.T) {
	rec := usRecord(7).With(KeyName, TextValue("Smith & Sons <UK>"))

	out, err := testEncoder().Encode([]ShipmentRecord{rec}, FormatXML)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	text := string(out.Data)

	wantPrefix := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<shipments version="1.0" created="2024-03-01T08:30:00Z" count="1">` + "\n" +
		`  <shipment id="7">` + "\n" +
		"    <company-or-name>Smith &amp; Sons &lt;UK&gt;</company-or-name>\n" +
		"    <address-1>1 Main St</address-1>\n"
	if !strings.HasPrefix(text, wantPrefix) {
		t.Errorf("tagged output starts:\n%s", text[:min(len(text), 300)])
	}
	if !strings.HasSuffix(text, "  </shipment>\n</shipments>\n") {
		t.Error("tagged output not closed")
	}
	if strings.Contains(text, "\r") {
		t.Error("tagged output uses LF only")
	}
	if !strings.Contains(text, "<email-address>ship@acme.example</email-address>") {
		t.Error("missing e-mail element")
	}
	if !strings.Contains(text, "<large-package>0</large-package>") {
		t.Error("missing large package element")
	}
}

func TestEscapeMarkup(t *testing.T) {
	got := EscapeMarkup(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;"
	if got != want {
		t.Errorf("EscapeMarkup() = %q, want %q", got, want)
	}
}

func TestTagName(t *testing.T) {
	tests := []struct {
		external string
		want     string
	}{
		{"Company or Name", "company-or-name"},
		{"State/Prov/Other", "stateprovother"},
		{"E-mail Address", "email-address"},
		{"Notification 1 E-mail", "notification-1-email"},
		{"  Weight  ", "weight"},
		{"-Odd- Name-", "odd-name"},
		{"???", "field"},
	}
	for _, tt := range tests {
		if got := TagName(tt.external); got != tt.want {
			t.Errorf("TagName(%q) = %q, want %q", tt.external, got, tt.want)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	recs := []ShipmentRecord{usRecord(1), usRecord(2).With(KeyCity, TextValue("Peoria"))}
	for _, f := range Formats {
		a, err := testEncoder().Encode(recs, f)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", f.Name, err)
		}
		b, _ := testEncoder().Encode(recs, f)
		if !bytes.Equal(a.Data, b.Data) {
			t.Errorf("%s output differs between runs", f.Name)
		}
	}
}

func TestEncode_ResolveOrder(t *testing.T) {
	enc := testEncoder()
	cat := testCatalog()

	rec := usRecord(1)
	delete(rec.Fields, KeyTelephone)
	rec.Fields["phone"] = TextValue("5550100")    // legacy alias
	delete(rec.Fields, KeyWeightUnit)             // filled from the US profile
	delete(rec.Fields, KeyServiceCode)            // catalog default
	rec.Fields[KeyLargePackage] = BoolValue(true) // ignored, recomputed
	rec.Fields[KeySaturdayDelivery] = TextValue("yes")

	out, err := enc.Encode([]ShipmentRecord{rec}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	lines := strings.Split(string(out.Data), "\r\n")
	cells := strings.Split(lines[1], ",")

	want := map[string]string{
		KeyTelephone:        "5550100",
		KeyWeightUnit:       UnitPound,
		KeyServiceCode:      "11",
		KeyLargePackage:     "0",
		KeySaturdayDelivery: "1",
		KeyResidential:      "0",
		KeyCustomsValue:     "",
	}
	for i, f := range cat.Fields() {
		if w, ok := want[f.Key]; ok && cells[i] != w {
			t.Errorf("%s = %q, want %q", f.Key, cells[i], w)
		}
	}
	if len(out.Substitutions) != 0 {
		t.Errorf("Substitutions = %v, want none", out.Substitutions)
	}
}

func TestEncode_Substitution(t *testing.T) {
	rec := usRecord(3)
	rec.Fields[KeyPackagingType] = TextValue("99")
	rec.Fields[KeyResidential] = TextValue("maybe")

	out, err := testEncoder().Encode([]ShipmentRecord{rec}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(out.Substitutions) != 2 {
		t.Fatalf("Substitutions = %v, want 2", out.Substitutions)
	}
	got := map[string]Substitution{}
	for _, s := range out.Substitutions {
		got[s.Key] = s
	}
	if s := got[KeyPackagingType]; s.From != "99" || s.To != "2" || s.RecordID != 3 {
		t.Errorf("packaging substitution = %+v", s)
	}
	if s := got[KeyResidential]; s.From != "maybe" || s.To != "0" {
		t.Errorf("residential substitution = %+v", s)
	}
}

func TestEncode_OptionalSelectStaysEmpty(t *testing.T) {
	env := Env{
		Catalog: NewCatalog([]FieldSpec{
			{Key: KeyName, ExternalName: "Company or Name", Required: Always},
			{Key: KeyServiceCode, ExternalName: "Service", Kind: KindSelect, Options: []Option{{Code: "11"}, {Code: "01"}}},
		}),
		Profiles: testProfiles(),
	}
	rec := NewRecord(1).With(KeyName, TextValue("Acme"))

	out, err := NewEncoder(env).Encode([]ShipmentRecord{rec}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := "Company or Name,Service\r\nAcme,\r\n"; string(out.Data) != want {
		t.Errorf("Encode() = %q, want %q", out.Data, want)
	}
	if len(out.Substitutions) != 0 {
		t.Errorf("Substitutions = %v, want none", out.Substitutions)
	}
}

func TestEncode_LargePackageRecomputed(t *testing.T) {
	rec := usRecord(1)
	rec.Fields[KeyLength] = NumberValue(250)
	rec.Fields[KeyLargePackage] = BoolValue(false)

	env := testEnv()
	spec, _ := env.Catalog.Lookup(KeyLargePackage)
	if got := ResolveValue(rec, spec, env.RuleEnv(rec)); got != "1" {
		t.Errorf("large package = %q, want 1", got)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	enc := testEncoder()
	cat := testCatalog()

	recs := []ShipmentRecord{
		usRecord(1),
		usRecord(2).With(KeyName, TextValue(`Quote "Co", Ltd`)).With(KeyResidential, BoolValue(true)),
	}
	first, err := enc.Encode(recs, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tok, err := Tokenize(string(first.Data), "batch.csv")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	mapping := MapHeaders(cat, tok.Header)
	if len(mapping.Unmapped()) != 0 {
		t.Fatalf("unmapped columns after round trip: %v", mapping.Unmapped())
	}

	var rebuilt []ShipmentRecord
	for i, row := range tok.Rows {
		rebuilt = append(rebuilt, BuildRecord(cat, mapping, row, int64(i+1)))
	}
	second, err := enc.Encode(rebuilt, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Errorf("round trip changed output:\n%s\n---\n%s", first.Data, second.Data)
	}
}
