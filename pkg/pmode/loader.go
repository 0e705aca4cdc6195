package pmode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// ErrInvalidPMode is returned for malformed P-Mode documents
var ErrInvalidPMode = errors.New("invalid P-Mode document")

// Parse reads one P-Mode XML document.
//
// Expected shape:
//
//	<PMode id="pm-partner-a">
//	  <MEPBinding>http://holodeck-b2b.org/pmode/mepBinding/as2</MEPBinding>
//	  <Initiator><PartyId role="Sender">org-a</PartyId></Initiator>
//	  <Responder><PartyId role="Receiver">org-b</PartyId></Responder>
//	  <Protocol><Address>https://partner.example.com/as2</Address></Protocol>
//	  <BusinessInfo><Service>Orders</Service><Action>Submit</Action></BusinessInfo>
//	  <Security>
//	    <Signing certificateAlias="sign-a" hashFunction="sha256"/>
//	    <Encryption certificateAlias="enc-b" algorithm="aes128-gcm"/>
//	  </Security>
//	  <Compression>true</Compression>
//	</PMode>
func Parse(data []byte) (*ProcessingMode, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPMode, err)
	}

	root := doc.SelectElement("PMode")
	if root == nil {
		return nil, fmt.Errorf("%w: missing PMode root element", ErrInvalidPMode)
	}

	id := root.SelectAttrValue("id", "")
	if id == "" {
		return nil, fmt.Errorf("%w: missing id attribute", ErrInvalidPMode)
	}

	pm := &ProcessingMode{ID: id}

	if e := root.SelectElement("MEPBinding"); e != nil {
		pm.MEPBinding = strings.TrimSpace(e.Text())
	}
	if pm.MEPBinding == "" {
		return nil, fmt.Errorf("%w: missing MEPBinding in %q", ErrInvalidPMode, id)
	}

	pm.Initiator = parseParty(root.SelectElement("Initiator"))
	pm.Responder = parseParty(root.SelectElement("Responder"))

	if e := root.SelectElement("Protocol"); e != nil {
		if addr := e.SelectElement("Address"); addr != nil {
			pm.Protocol = &Protocol{Address: strings.TrimSpace(addr.Text())}
		}
	}

	if e := root.SelectElement("BusinessInfo"); e != nil {
		if svc := e.SelectElement("Service"); svc != nil {
			pm.Service = strings.TrimSpace(svc.Text())
		}
		if act := e.SelectElement("Action"); act != nil {
			pm.Action = strings.TrimSpace(act.Text())
		}
	}

	if e := root.SelectElement("Security"); e != nil {
		sec := &Security{}
		if s := e.SelectElement("Signing"); s != nil {
			sec.Signing = &SigningConfig{
				CertificateAlias: s.SelectAttrValue("certificateAlias", ""),
				HashFunction:     s.SelectAttrValue("hashFunction", "sha256"),
			}
		}
		if enc := e.SelectElement("Encryption"); enc != nil {
			sec.Encryption = &EncryptionConfig{
				CertificateAlias: enc.SelectAttrValue("certificateAlias", ""),
				Algorithm:        enc.SelectAttrValue("algorithm", "aes128-gcm"),
			}
		}
		pm.Security = sec
	}

	if e := root.SelectElement("Compression"); e != nil {
		pm.Compression = strings.TrimSpace(e.Text()) == "true"
	}

	return pm, nil
}

func parseParty(e *etree.Element) *Party {
	if e == nil {
		return nil
	}
	pid := e.SelectElement("PartyId")
	if pid == nil {
		return nil
	}
	return &Party{
		ID:   strings.TrimSpace(pid.Text()),
		Role: pid.SelectAttrValue("role", ""),
	}
}

// LoadFile parses one P-Mode document from disk
func LoadFile(path string) (*ProcessingMode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read P-Mode file: %w", err)
	}
	pm, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pm, nil
}

// LoadDir loads every .xml P-Mode document in a directory into the manager
func LoadDir(dir string, m *Manager) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read P-Mode directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".xml" {
			continue
		}
		pm, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		m.Add(pm)
	}
	return nil
}
