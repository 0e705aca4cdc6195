package pmode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const samplePMode = `<PMode id="pm-partner-a">
  <MEPBinding>http://holodeck-b2b.org/pmode/mepBinding/as2</MEPBinding>
  <Initiator><PartyId role="Sender">org-a</PartyId></Initiator>
  <Responder><PartyId role="Receiver">org-b</PartyId></Responder>
  <Protocol><Address>https://partner.example.com/as2</Address></Protocol>
  <BusinessInfo><Service>Orders</Service><Action>Submit</Action></BusinessInfo>
  <Security>
    <Signing certificateAlias="sign-a" hashFunction="sha256"/>
    <Encryption certificateAlias="enc-b" algorithm="aes128-gcm"/>
  </Security>
  <Compression>true</Compression>
</PMode>`

func TestParse(t *testing.T) {
	pm, err := Parse([]byte(samplePMode))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if pm.ID != "pm-partner-a" {
		t.Errorf("ID = %q, want pm-partner-a", pm.ID)
	}
	if pm.MEPBinding != "http://holodeck-b2b.org/pmode/mepBinding/as2" {
		t.Errorf("unexpected MEPBinding %q", pm.MEPBinding)
	}
	if pm.Initiator == nil || pm.Initiator.ID != "org-a" || pm.Initiator.Role != "Sender" {
		t.Errorf("unexpected initiator %+v", pm.Initiator)
	}
	if pm.Responder == nil || pm.Responder.ID != "org-b" || pm.Responder.Role != "Receiver" {
		t.Errorf("unexpected responder %+v", pm.Responder)
	}
	if pm.Protocol == nil || pm.Protocol.Address != "https://partner.example.com/as2" {
		t.Errorf("unexpected protocol %+v", pm.Protocol)
	}
	if pm.Service != "Orders" || pm.Action != "Submit" {
		t.Errorf("unexpected business info %q/%q", pm.Service, pm.Action)
	}
	if pm.Security == nil || pm.Security.Signing == nil {
		t.Fatal("signing configuration not parsed")
	}
	if pm.Security.Signing.CertificateAlias != "sign-a" {
		t.Errorf("signing alias = %q", pm.Security.Signing.CertificateAlias)
	}
	if pm.Security.Encryption == nil || pm.Security.Encryption.Algorithm != "aes128-gcm" {
		t.Errorf("unexpected encryption config %+v", pm.Security.Encryption)
	}
	if !pm.Compression {
		t.Error("compression flag not parsed")
	}
}

func TestParseMinimal(t *testing.T) {
	pm, err := Parse([]byte(`<PMode id="pm-min"><MEPBinding>urn:binding</MEPBinding></PMode>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if pm.Security != nil {
		t.Error("expected nil security for minimal document")
	}
	if pm.Compression {
		t.Error("compression must default to off")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "{not xml}"},
		{"wrong root", `<Agreement id="x"/>`},
		{"missing id", `<PMode><MEPBinding>urn:b</MEPBinding></PMode>`},
		{"missing binding", `<PMode id="x"/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, ErrInvalidPMode) {
				t.Errorf("Parse error = %v, want ErrInvalidPMode", err)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "partner-a.xml"), []byte(samplePMode), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-XML files are skipped
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := LoadDir(dir, m); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("loaded %d P-Modes, want 1", m.Len())
	}
	if m.Get("pm-partner-a") == nil {
		t.Error("pm-partner-a not found after load")
	}
}

func TestLoadDirInvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.xml"), []byte(`<PMode/>`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadDir(dir, NewManager()); err == nil {
		t.Error("LoadDir must fail on an invalid document")
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	pm := &ProcessingMode{ID: "pm-1", MEPBinding: "urn:b"}

	m.Add(pm)
	if got := m.Get("pm-1"); got != pm {
		t.Error("Get returned a different P-Mode")
	}
	if got := m.Get("unknown"); got != nil {
		t.Errorf("Get(unknown) = %+v, want nil", got)
	}

	m.Remove("pm-1")
	if m.Len() != 0 {
		t.Errorf("Len = %d after remove, want 0", m.Len())
	}
}
