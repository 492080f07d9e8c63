package mpesa

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
)

// securityCredential produces the encrypted initiator password the B2C API
// expects. Production encrypts against the gateway's X509 certificate; in the
// sandbox a pre-issued credential from config is used as-is.
func securityCredential(cfg Config) (string, error) {
	if cfg.Environment != "production" {
		if cfg.SecurityCredential == "" {
			return "", errors.New("mpesa: sandbox security credential not configured")
		}
		return cfg.SecurityCredential, nil
	}

	pemBytes, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return "", err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return "", errors.New("mpesa: certificate is not valid PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("mpesa: certificate does not hold an RSA key")
	}

	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(cfg.InitiatorPassword))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}
