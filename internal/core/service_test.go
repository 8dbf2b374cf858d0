package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/shipbatch/internal/store"
)

const batchHeader = "Company or Name,Address 1,City,State/Prov/Other,Postal Code,Country,Telephone,E-mail Address,Weight,Length,Width,Height\n"

// testBatch has a valid row, an invalid row and a duplicate of the first.
const testBatch = batchHeader +
	"Acme Corp,1 Main St,Springfield,IL,62701,US,2175550100,ship@acme.example,5,30,20,10\n" +
	"Beta,,Chicago,IL,6060,US,,,5,30,20,10\n" +
	"Acme Corp,1 Main St,Springfield,IL,62701,US,2175550100,ship@acme.example,5,30,20,10\n"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T, clock *testClock) *Service {
	t.Helper()
	return newTestServiceWithStore(t, clock, store.NewMemory())
}

func newTestServiceWithStore(t *testing.T, clock *testClock, st store.Store) *Service {
	t.Helper()
	if clock == nil {
		clock = &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	}
	svc, err := NewService(testEnv(), st, ServiceConfig{GateWait: 20 * time.Millisecond},
		WithServiceClock(clock.Now),
		WithServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestNewService_RequiresCatalog(t *testing.T) {
	_, err := NewService(Env{}, store.NewMemory(), ServiceConfig{})
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("NewService() error = %v, want ErrCatalogUnavailable", err)
	}
}

func TestService_AnalyzeImport(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}

	if preview.SessionID == "" {
		t.Error("SessionID should be set")
	}
	if preview.Delimiter != "comma" {
		t.Errorf("Delimiter = %q, want comma", preview.Delimiter)
	}
	if len(preview.Unmapped) != 0 {
		t.Errorf("Unmapped = %v, want none", preview.Unmapped)
	}
	if len(preview.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(preview.Rows))
	}

	r := preview.Report
	if r.TotalRows != 3 || r.ValidRows != 2 || r.InvalidRows != 1 {
		t.Errorf("report totals = %d/%d/%d, want 3/2/1", r.TotalRows, r.ValidRows, r.InvalidRows)
	}
	if r.DuplicateRows != 1 {
		t.Errorf("DuplicateRows = %d, want 1 (only the later row)", r.DuplicateRows)
	}
	if r.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want %q", r.Severity, SeverityHigh)
	}
	if len(r.ErrorSamples) != 1 || r.ErrorSamples[0].LineNumber != 3 {
		t.Errorf("ErrorSamples = %+v, want one sample at line 3", r.ErrorSamples)
	}

	first := preview.Rows[0]
	if first.LineNumber != 2 || !first.Verdict.IsValid {
		t.Errorf("first row = line %d valid %v, want line 2 valid", first.LineNumber, first.Verdict.IsValid)
	}
	if got := first.Record.Text(KeyPackagingType); got != "2" {
		t.Errorf("packaging default = %q, want 2", got)
	}

	status := svc.GateStatus()
	if !status.Busy || status.Holder != preview.SessionID {
		t.Errorf("GateStatus() = %+v, want busy with session holder", status)
	}

	if err := svc.CancelImport(preview.SessionID); err != nil {
		t.Fatalf("CancelImport failed: %v", err)
	}
}

func TestService_AnalyzeStoresNothing(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	recs, err := svc.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ListRecords() = %d records, want 0 before commit", len(recs))
	}
}

func TestService_CommitImport(t *testing.T) {
	tests := []struct {
		name         string
		validOnly    bool
		wantImported int
		wantSkipped  int
	}{
		{name: "valid only", validOnly: true, wantImported: 2, wantSkipped: 1},
		{name: "all rows", validOnly: false, wantImported: 3, wantSkipped: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil)
			ctx := WithClient(context.Background(), Client{IPAddress: "203.0.113.7"})

			preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
			if err != nil {
				t.Fatalf("AnalyzeImport failed: %v", err)
			}

			result, err := svc.CommitImport(ctx, preview.SessionID, tt.validOnly)
			if err != nil {
				t.Fatalf("CommitImport failed: %v", err)
			}
			if result.Imported != tt.wantImported {
				t.Errorf("Imported = %d, want %d", result.Imported, tt.wantImported)
			}
			if result.SkippedInvalid != tt.wantSkipped {
				t.Errorf("SkippedInvalid = %d, want %d", result.SkippedInvalid, tt.wantSkipped)
			}
			if result.RecordIDs[0] != 1 {
				t.Errorf("first id = %d, want 1", result.RecordIDs[0])
			}

			if svc.GateStatus().Busy {
				t.Error("gate should be free after commit")
			}

			recs, err := svc.ListRecords(ctx)
			if err != nil {
				t.Fatalf("ListRecords failed: %v", err)
			}
			if len(recs) != tt.wantImported {
				t.Errorf("ListRecords() = %d records, want %d", len(recs), tt.wantImported)
			}
			if recs[0].ID != 1 || recs[0].Text(KeyName) != "Acme Corp" {
				t.Errorf("first record = %+v", recs[0])
			}

			history, err := svc.ListImports(ctx, 0)
			if err != nil {
				t.Fatalf("ListImports failed: %v", err)
			}
			if len(history) != 1 {
				t.Fatalf("ListImports() = %d entries, want 1", len(history))
			}
			if history[0].FileName != "batch.csv" || history[0].Imported != tt.wantImported {
				t.Errorf("history entry = %+v", history[0])
			}
			if history[0].IPAddress != "203.0.113.7" {
				t.Errorf("history IPAddress = %q, want 203.0.113.7", history[0].IPAddress)
			}

			if _, err := svc.CommitImport(ctx, preview.SessionID, tt.validOnly); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("second CommitImport() error = %v, want ErrSessionNotFound", err)
			}
		})
	}
}

func TestService_ImportGate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.AnalyzeImport(ctx, "one.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}

	_, err = svc.AnalyzeImport(ctx, "two.csv", []byte(testBatch), nil)
	if !errors.Is(err, ErrImportInProgress) {
		t.Fatalf("second AnalyzeImport() error = %v, want ErrImportInProgress", err)
	}

	if err := svc.CancelImport(first.SessionID); err != nil {
		t.Fatalf("CancelImport failed: %v", err)
	}
	if err := svc.CancelImport(first.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second CancelImport() error = %v, want ErrSessionNotFound", err)
	}

	second, err := svc.AnalyzeImport(ctx, "two.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport after cancel failed: %v", err)
	}
	svc.CancelImport(second.SessionID)
}

func TestService_AnalyzeErrorReleasesGate(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		overrides map[int]string
		wantErr   error
	}{
		{name: "empty file", data: "  \n", wantErr: ErrEmptyInput},
		{name: "unreadable", data: "a,b\x00\n", wantErr: ErrUnreadableEncoding},
		{name: "unknown override", data: testBatch, overrides: map[int]string{0: "nope"}, wantErr: ErrInvalidMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil)
			_, err := svc.AnalyzeImport(context.Background(), "batch.csv", []byte(tt.data), tt.overrides)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AnalyzeImport() error = %v, want %v", err, tt.wantErr)
			}
			if svc.GateStatus().Busy {
				t.Error("gate should be free after a failed analysis")
			}
		})
	}
}

func TestService_AnalyzeOverrides(t *testing.T) {
	svc := newTestService(t, nil)

	// Unmap the telephone column.
	preview, err := svc.AnalyzeImport(context.Background(), "batch.csv", []byte(testBatch), map[int]string{6: ""})
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	if len(preview.Unmapped) != 1 || preview.Unmapped[0] != "Telephone" {
		t.Errorf("Unmapped = %v, want [Telephone]", preview.Unmapped)
	}
	if preview.Rows[0].Record.Has(KeyTelephone) {
		t.Error("unmapped column should not reach the record")
	}
}

func TestService_SessionExpiry(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	if want := clock.Now().Add(DefaultSessionTTL); !preview.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", preview.ExpiresAt, want)
	}

	clock.Advance(DefaultSessionTTL)

	if _, err := svc.GetImport(preview.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetImport() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.CommitImport(ctx, preview.SessionID, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CommitImport() error = %v, want ErrSessionNotFound", err)
	}
	if svc.GateStatus().Busy {
		t.Error("gate should be free once the session expired")
	}
}

func TestService_SweeperExpiresSessions(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	if _, err := svc.AnalyzeImport(context.Background(), "batch.csv", []byte(testBatch), nil); err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}

	svc.runSweep()
	if !svc.GateStatus().Busy {
		t.Fatal("live session should survive a sweep")
	}

	clock.Advance(DefaultSessionTTL + time.Second)
	svc.runSweep()
	if svc.GateStatus().Busy {
		t.Error("sweep should free the gate of an expired session")
	}
}

func TestService_StartSessionSweeperStops(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartSessionSweeper(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestService_DuplicateAgainstStored(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateRecord(ctx, usRecord(0).Fields); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	if got := preview.Report.DuplicateRows; got != 2 {
		t.Errorf("DuplicateRows = %d, want 2", got)
	}
	if !preview.Rows[0].Verdict.Duplicate {
		t.Error("first row should duplicate the stored record")
	}
}

func TestService_ImportFile(t *testing.T) {
	svc := newTestService(t, nil)

	preview, err := svc.ImportFile(context.Background(), "batch.csv", strings.NewReader(testBatch), nil)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	if preview.FileName != "batch.csv" || preview.Report.TotalRows != 3 {
		t.Errorf("ImportFile() = %s with %d rows", preview.FileName, preview.Report.TotalRows)
	}
}

func TestService_PreviewRowsCapped(t *testing.T) {
	svc, err := NewService(testEnv(), store.NewMemory(), ServiceConfig{PreviewRows: 2},
		WithServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	preview, err := svc.AnalyzeImport(context.Background(), "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	if len(preview.Rows) != 2 {
		t.Errorf("Rows = %d, want 2", len(preview.Rows))
	}
	if preview.Report.TotalRows != 3 {
		t.Errorf("report TotalRows = %d, want 3", preview.Report.TotalRows)
	}
}

func TestService_RecordCRUD(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateRecord(ctx, map[string]Value{
		KeyName:    TextValue("  Acme  "),
		KeyWeight:  TextValue("2,5"),
		KeyCountry: TextValue("us"),
	})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if created.ID != 1 {
		t.Errorf("ID = %d, want 1", created.ID)
	}
	if got := created.Text(KeyName); got != "Acme" {
		t.Errorf("name = %q, want Acme", got)
	}
	if got := created.Text(KeyCountry); got != "US" {
		t.Errorf("country = %q, want US", got)
	}
	if got, ok := created.Number(KeyWeight); !ok || got != 2.5 {
		t.Errorf("weight = %v (%v), want 2.5", got, ok)
	}
	if got := created.Text(KeyPackagingType); got != "2" {
		t.Errorf("packaging default = %q, want 2", got)
	}

	updated, err := svc.UpdateRecord(ctx, created.ID, map[string]Value{
		KeyCity: TextValue("Springfield"),
		KeyName: TextValue(""),
	})
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if updated.Has(KeyName) {
		t.Error("empty value should clear the field")
	}

	got, err := svc.GetRecord(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.Text(KeyCity) != "Springfield" {
		t.Errorf("stored city = %q, want Springfield", got.Text(KeyCity))
	}

	if err := svc.DeleteRecord(ctx, created.ID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, err := svc.GetRecord(ctx, created.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetRecord() after delete error = %v, want ErrRecordNotFound", err)
	}
	if err := svc.DeleteRecord(ctx, created.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("DeleteRecord() twice error = %v, want ErrRecordNotFound", err)
	}

	next, err := svc.CreateRecord(ctx, map[string]Value{KeyName: TextValue("Beta")})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if next.ID != 2 {
		t.Errorf("ids must not be reused: got %d, want 2", next.ID)
	}
}

func TestService_UnknownField(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateRecord(ctx, map[string]Value{"nope": TextValue("x")}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("CreateRecord() error = %v, want ErrUnknownField", err)
	}
	if _, err := svc.UpdateRecord(ctx, 1, map[string]Value{"nope": TextValue("x")}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("UpdateRecord() error = %v, want ErrUnknownField", err)
	}
	if _, err := svc.UpdateRecord(ctx, 99, map[string]Value{KeyName: TextValue("x")}); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("UpdateRecord() missing error = %v, want ErrRecordNotFound", err)
	}
}

func TestService_ClearRecords(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateRecord(ctx, usRecord(0).Fields); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
	}

	n, err := svc.ClearRecords(ctx)
	if err != nil {
		t.Fatalf("ClearRecords failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ClearRecords() = %d, want 3", n)
	}
	recs, _ := svc.ListRecords(ctx)
	if len(recs) != 0 {
		t.Errorf("ListRecords() = %d, want 0", len(recs))
	}
}

func TestService_ValidateStored(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	good, _ := svc.CreateRecord(ctx, usRecord(0).Fields)
	bad, _ := svc.CreateRecord(ctx, map[string]Value{KeyName: TextValue("Only a name")})

	v, err := svc.ValidateStored(ctx, good.ID)
	if err != nil {
		t.Fatalf("ValidateStored failed: %v", err)
	}
	if !v.IsValid {
		t.Errorf("good record verdict = %+v, want valid", v.FieldErrors)
	}

	all, err := svc.ValidateAll(ctx)
	if err != nil {
		t.Fatalf("ValidateAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ValidateAll() = %d, want 2", len(all))
	}
	if all[1].Record.ID != bad.ID || all[1].Verdict.IsValid {
		t.Errorf("second verdict = %+v, want invalid for record %d", all[1].Verdict, bad.ID)
	}

	if _, err := svc.ValidateStored(ctx, 42); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("ValidateStored() missing error = %v, want ErrRecordNotFound", err)
	}
}

func TestService_Export(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.CreateRecord(ctx, usRecord(0).Fields)
	svc.CreateRecord(ctx, map[string]Value{KeyName: TextValue("Only a name")})

	tests := []struct {
		name      string
		validOnly bool
		wantRows  int
	}{
		{name: "valid only", validOnly: true, wantRows: 1},
		{name: "everything", validOnly: false, wantRows: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Export(ctx, FormatCSV, tt.validOnly)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			if out.Records != tt.wantRows {
				t.Errorf("Records = %d, want %d", out.Records, tt.wantRows)
			}
			lines := bytes.Count(out.Data, []byte("\r\n"))
			if lines != tt.wantRows+1 {
				t.Errorf("output lines = %d, want %d", lines, tt.wantRows+1)
			}
		})
	}
}

func TestService_Templates(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	mapping := MapHeaders(svc.Catalog(), []string{"Recipient", "Street", "Town"})
	mapping, err := mapping.WithOverrides(svc.Catalog(), map[int]string{0: KeyName, 1: KeyAddress1, 2: KeyCity})
	if err != nil {
		t.Fatalf("WithOverrides failed: %v", err)
	}

	tmpl, err := svc.SaveTemplate(ctx, "Webshop export", mapping)
	if err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}
	if tmpl.ID == "" || len(tmpl.Columns) != 3 {
		t.Errorf("SaveTemplate() = %+v", tmpl)
	}

	if _, err := svc.SaveTemplate(ctx, "webshop EXPORT", mapping); !errors.Is(err, ErrTemplateExists) {
		t.Errorf("duplicate SaveTemplate() error = %v, want ErrTemplateExists", err)
	}
	if _, err := svc.SaveTemplate(ctx, "  ", mapping); err == nil {
		t.Error("SaveTemplate() with blank name should fail")
	}

	// Same headers in another order, plus one extra column.
	header := []string{"town", "Extra", "RECIPIENT", "Street"}
	matches, err := svc.MatchTemplates(ctx, header)
	if err != nil {
		t.Fatalf("MatchTemplates failed: %v", err)
	}
	if len(matches) != 1 || matches[0].MatchScore != 1 {
		t.Fatalf("MatchTemplates() = %+v, want one full match", matches)
	}

	overrides := matches[0].Template.Overrides(header)
	want := map[int]string{0: KeyCity, 2: KeyName, 3: KeyAddress1}
	if len(overrides) != len(want) {
		t.Fatalf("Overrides() = %v, want %v", overrides, want)
	}
	for i, key := range want {
		if overrides[i] != key {
			t.Errorf("Overrides()[%d] = %q, want %q", i, overrides[i], key)
		}
	}

	got, err := svc.GetTemplate(ctx, tmpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != "Webshop export" {
		t.Errorf("GetTemplate() name = %q", got.Name)
	}

	if err := svc.DeleteTemplate(ctx, tmpl.ID); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}
	if err := svc.DeleteTemplate(ctx, tmpl.ID); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("second DeleteTemplate() error = %v, want ErrTemplateNotFound", err)
	}
	if _, err := svc.GetTemplate(ctx, "not-a-uuid"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("GetTemplate(invalid) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestMatchTemplateHeaders(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		template []string
		want     float64
	}{
		{name: "exact", header: []string{"a", "b"}, template: []string{"a", "b"}, want: 1},
		{name: "case and space", header: []string{" A ", "B"}, template: []string{"a", "b"}, want: 1},
		{name: "half", header: []string{"a"}, template: []string{"a", "b"}, want: 0.5},
		{name: "empty template", header: []string{"a"}, template: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchTemplateHeaders(tt.header, tt.template); got != tt.want {
				t.Errorf("matchTemplateHeaders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_RemapImport(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	// Unmapping the address column makes every row invalid.
	remapped, err := svc.RemapImport(ctx, preview.SessionID, map[int]string{1: ""})
	if err != nil {
		t.Fatalf("RemapImport failed: %v", err)
	}
	if remapped.SessionID != preview.SessionID {
		t.Errorf("SessionID changed: %q -> %q", preview.SessionID, remapped.SessionID)
	}
	if remapped.Report.InvalidRows != 3 {
		t.Errorf("InvalidRows = %d, want 3", remapped.Report.InvalidRows)
	}

	got, err := svc.GetImport(preview.SessionID)
	if err != nil {
		t.Fatalf("GetImport failed: %v", err)
	}
	if got.Report.InvalidRows != 3 {
		t.Errorf("stored session not updated: InvalidRows = %d", got.Report.InvalidRows)
	}

	if _, err := svc.RemapImport(ctx, preview.SessionID, map[int]string{99: KeyName}); !errors.Is(err, ErrInvalidMapping) {
		t.Errorf("RemapImport() bad column error = %v, want ErrInvalidMapping", err)
	}
	if _, err := svc.RemapImport(ctx, "missing", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RemapImport() missing error = %v, want ErrSessionNotFound", err)
	}
}

func TestService_ApplyTemplate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	data := "Recipient,Street,Town\nAcme,1 Main St,Springfield\n"
	preview, err := svc.AnalyzeImport(ctx, "webshop.csv", []byte(data), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	defer svc.CancelImport(preview.SessionID)

	mapping, err := preview.Mapping.WithOverrides(svc.Catalog(), map[int]string{0: KeyName, 1: KeyAddress1, 2: KeyCity})
	if err != nil {
		t.Fatalf("WithOverrides failed: %v", err)
	}
	tmpl, err := svc.SaveTemplate(ctx, "Webshop", mapping)
	if err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}

	applied, err := svc.ApplyTemplate(ctx, preview.SessionID, tmpl.ID)
	if err != nil {
		t.Fatalf("ApplyTemplate failed: %v", err)
	}
	rec := applied.Rows[0].Record
	if rec.Text(KeyName) != "Acme" || rec.Text(KeyAddress1) != "1 Main St" || rec.Text(KeyCity) != "Springfield" {
		t.Errorf("record after template = %+v", rec.Fields)
	}
	for _, c := range applied.Mapping.Columns {
		if c.Rule != MatchOverride {
			t.Errorf("column %q rule = %q, want %q", c.Header, c.Rule, MatchOverride)
		}
	}
}

// cancelledAfter reports context.Canceled from Err once it has been asked
// more than n times.
type cancelledAfter struct {
	context.Context
	mu    sync.Mutex
	calls int
	n     int
}

func (c *cancelledAfter) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls > c.n {
		return context.Canceled
	}
	return nil
}

func TestService_AnalyzeRunsToReportAfterCancel(t *testing.T) {
	svc := newTestService(t, nil)

	var b strings.Builder
	b.WriteString(batchHeader)
	for i := 0; i < 10; i++ {
		b.WriteString("Acme Corp,1 Main St,Springfield,IL,62701,US,2175550100,ship@acme.example,5,30,20,10\n")
	}

	ctx := &cancelledAfter{Context: context.Background(), n: 3}
	preview, err := svc.AnalyzeImport(ctx, "b.csv", []byte(b.String()), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	if preview.Report.TotalRows != 10 {
		t.Errorf("TotalRows = %d, want 10", preview.Report.TotalRows)
	}

	remapped, err := svc.RemapImport(&cancelledAfter{Context: context.Background()}, preview.SessionID, nil)
	if err != nil {
		t.Fatalf("RemapImport failed: %v", err)
	}
	if remapped.Report.TotalRows != 10 {
		t.Errorf("remapped TotalRows = %d, want 10", remapped.Report.TotalRows)
	}
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails record writes once okPuts of them have succeeded.
type failingStore struct {
	store.Store
	mu     sync.Mutex
	okPuts int
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if strings.HasPrefix(key, recordPrefix) {
		f.mu.Lock()
		if f.okPuts == 0 {
			f.mu.Unlock()
			return errStoreDown
		}
		f.okPuts--
		f.mu.Unlock()
	}
	return f.Store.Put(ctx, key, value)
}

func TestService_CommitFailureUndoesStoredRecords(t *testing.T) {
	svc := newTestServiceWithStore(t, nil, &failingStore{Store: store.NewMemory(), okPuts: 2})
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}

	result, err := svc.CommitImport(ctx, preview.SessionID, false)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("CommitImport() error = %v, want errStoreDown", err)
	}
	if result != nil {
		t.Errorf("CommitImport() result = %+v, want nil", result)
	}

	recs, err := svc.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ListRecords() = %d records, want 0 after failed commit", len(recs))
	}
	history, err := svc.ListImports(ctx, 0)
	if err != nil {
		t.Fatalf("ListImports failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("ListImports() = %d entries, want 0", len(history))
	}
	if svc.GateStatus().Busy {
		t.Error("gate should be free after a failed commit")
	}
}

func TestService_RollbackImport(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	preview, err := svc.AnalyzeImport(ctx, "batch.csv", []byte(testBatch), nil)
	if err != nil {
		t.Fatalf("AnalyzeImport failed: %v", err)
	}
	commit, err := svc.CommitImport(ctx, preview.SessionID, true)
	if err != nil {
		t.Fatalf("CommitImport failed: %v", err)
	}

	history, err := svc.ListImports(ctx, 0)
	if err != nil {
		t.Fatalf("ListImports failed: %v", err)
	}
	if len(history) != 1 || len(history[0].RecordIDs) != commit.Imported {
		t.Fatalf("history = %+v, want one entry with %d record ids", history, commit.Imported)
	}

	// a record removed by hand is reported as missing
	if err := svc.DeleteRecord(ctx, commit.RecordIDs[0]); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	kept, err := svc.CreateRecord(ctx, usRecord(0).Fields)
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	result, err := svc.RollbackImport(ctx, commit.ImportID)
	if err != nil {
		t.Fatalf("RollbackImport failed: %v", err)
	}
	if result.RecordsDeleted != commit.Imported-1 || result.RecordsMissing != 1 {
		t.Errorf("RollbackImport() = %+v, want %d deleted and 1 missing", result, commit.Imported-1)
	}

	recs, err := svc.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != kept.ID {
		t.Errorf("ListRecords() = %+v, want only record %d", recs, kept.ID)
	}

	history, _ = svc.ListImports(ctx, 0)
	if history[0].RolledBackAt == nil {
		t.Error("history entry should be marked rolled back")
	}

	if _, err := svc.RollbackImport(ctx, commit.ImportID); !errors.Is(err, ErrAlreadyRolledBack) {
		t.Errorf("second RollbackImport() error = %v, want ErrAlreadyRolledBack", err)
	}
	if _, err := svc.RollbackImport(ctx, "missing"); !errors.Is(err, ErrImportNotFound) {
		t.Errorf("RollbackImport(unknown) error = %v, want ErrImportNotFound", err)
	}
}
