package envelope

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tfbridge/pkg/domainerrors"
)

// CertFetcher retrieves signing certificates. Injected so verification is
// testable without network access.
type CertFetcher interface {
	Fetch(ctx context.Context, certURL string) ([]byte, error)
}

// HTTPCertFetcher fetches signing certificates over HTTPS.
type HTTPCertFetcher struct {
	Client *http.Client
}

func NewHTTPCertFetcher() *HTTPCertFetcher {
	return &HTTPCertFetcher{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (f *HTTPCertFetcher) Fetch(ctx context.Context, certURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching signing cert returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Verifier binds a cert fetcher to signature verification.
type Verifier struct {
	fetcher CertFetcher
}

func NewVerifier(fetcher CertFetcher) *Verifier {
	return &Verifier{fetcher: fetcher}
}

func (v *Verifier) Verify(ctx context.Context, content *Content) error {
	return VerifySignature(ctx, content, v.fetcher)
}

// VerifySignature checks the message signature against the published signing
// certificate. It must pass before any privileged action is taken; it is
// deliberately not required before best-effort failure reporting.
func VerifySignature(ctx context.Context, content *Content, fetcher CertFetcher) error {
	if content.Type != "Notification" {
		return domainerrors.New(domainerrors.CodeUntrustedSource,
			"cannot verify message of type %q", content.Type)
	}
	if err := validateCertURL(content.SigningCertURL); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUntrustedSource, "unable to verify SNS notification signature")
	}

	var hash crypto.Hash
	var digest []byte
	canonical := []byte(canonicalString(content))
	switch content.SignatureVersion {
	case "1":
		sum := sha1.Sum(canonical)
		hash, digest = crypto.SHA1, sum[:]
	case "2":
		sum := sha256.Sum256(canonical)
		hash, digest = crypto.SHA256, sum[:]
	default:
		return domainerrors.New(domainerrors.CodeUntrustedSource,
			"unsupported signature version %q", content.SignatureVersion)
	}

	signature, err := base64.StdEncoding.DecodeString(content.Signature)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUntrustedSource, "unable to verify SNS notification signature")
	}

	certPEM, err := fetcher.Fetch(ctx, content.SigningCertURL)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUntrustedSource, "unable to verify SNS notification signature")
	}
	pub, err := parseSigningKey(certPEM)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUntrustedSource, "unable to verify SNS notification signature")
	}

	if err := rsa.VerifyPKCS1v15(pub, hash, digest, signature); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUntrustedSource, "unable to verify SNS notification signature")
	}
	return nil
}

// canonicalString rebuilds the string SNS signed: sorted key/value pairs,
// each followed by a newline. Subject participates only when present.
func canonicalString(content *Content) string {
	var b strings.Builder
	write := func(key, value string) {
		b.WriteString(key)
		b.WriteByte('\n')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	write("Message", content.Message)
	write("MessageId", content.MessageID)
	if content.Subject != nil {
		write("Subject", *content.Subject)
	}
	write("Timestamp", content.Timestamp)
	write("TopicArn", content.TopicARN)
	write("Type", content.Type)
	return b.String()
}

func validateCertURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" {
		return fmt.Errorf("signing cert URL %q is not https", rawURL)
	}
	host := u.Hostname()
	if !strings.HasPrefix(host, "sns.") || !strings.HasSuffix(host, ".amazonaws.com") {
		return fmt.Errorf("signing cert URL host %q is not an SNS endpoint", host)
	}
	return nil
}

func parseSigningKey(certPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("signing cert is not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing cert: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("signing cert does not hold an RSA key")
	}
	return pub, nil
}
