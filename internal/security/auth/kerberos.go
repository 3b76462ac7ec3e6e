package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/service"

	"github.com/NTD-LAB/FSH/internal/config"
)

// KerberosVerifier validates base64-encoded AP-REQ tickets against a
// keytab, simplified to a single verify call: FSH has no GSS wrapping or
// mutual-auth AP-REP exchange, the client just presents one ticket per
// Authenticate.
type KerberosVerifier struct {
	keytab           *keytab.Keytab
	servicePrincipal string
	cfg              config.KerberosConfig
}

// NewKerberosVerifier loads cfg.KeytabPath and returns a verifier.
func NewKerberosVerifier(cfg config.KerberosConfig) (*KerberosVerifier, error) {
	kt, err := keytab.Load(cfg.KeytabPath)
	if err != nil {
		return nil, fmt.Errorf("load keytab %s: %w", cfg.KeytabPath, err)
	}
	return &KerberosVerifier{keytab: kt, servicePrincipal: cfg.ServicePrincipal, cfg: cfg}, nil
}

// Verify decodes a base64 AP-REQ ticket and validates it against the
// configured keytab and service principal, returning the authenticated
// client principal on success.
func (v *KerberosVerifier) Verify(ticketB64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ticketB64)
	if err != nil {
		return "", fmt.Errorf("decode AP-REQ: %w", err)
	}

	var apReq messages.APReq
	if err := apReq.Unmarshal(raw); err != nil {
		return "", fmt.Errorf("unmarshal AP-REQ: %w", err)
	}

	settings := service.NewSettings(
		v.keytab,
		service.MaxClockSkew(v.cfg.MaxClockSkew),
		service.DecodePAC(false),
		service.KeytabPrincipal(v.servicePrincipal),
	)

	ok, creds, err := service.VerifyAPREQ(&apReq, settings)
	if err != nil {
		return "", fmt.Errorf("verify AP-REQ: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("AP-REQ verification failed")
	}

	return creds.CName().PrincipalNameString(), nil
}
