package sso

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	saml2 "github.com/russellhaering/gosaml2"
	"github.com/russellhaering/gosaml2/types"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/observability"
)

const bindingHTTPRedirect = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"

// TrustConfig is the provider trust configuration: who we are as a service
// provider and which identity provider we accept assertions from. Loaded once
// at startup and immutable afterwards.
type TrustConfig struct {
	// EntityID identifies this service provider to the IdP
	EntityID string
	// ACSURL is the assertion consumer endpoint the IdP posts back to.
	// A path-only value ("/auth/callback") is resolved against the scheme
	// and host of the request that initiated login.
	ACSURL string
	// AudienceURI restricts which assertions we accept; defaults to EntityID
	AudienceURI string
	// IDPMetadataXML is the identity provider's metadata document
	IDPMetadataXML []byte
	// SPCertificatePEM and SPPrivateKeyPEM enable signed AuthnRequests
	SPCertificatePEM string
	SPPrivateKeyPEM  string
	SignRequests     bool
	NameIDFormat     string
	// SkipSignatureValidation disables assertion signature checks. Test use only.
	SkipSignatureValidation bool
}

// Validate reports whether the trust configuration is complete enough to
// serve SSO routes
func (c *TrustConfig) Validate() error {
	if c.EntityID == "" {
		return &ProtocolConfigError{Op: "validate", Err: fmt.Errorf("entity_id is required")}
	}
	if c.ACSURL == "" {
		return &ProtocolConfigError{Op: "validate", Err: fmt.Errorf("acs_url is required")}
	}
	if len(c.IDPMetadataXML) == 0 {
		return &ProtocolConfigError{Op: "validate", Err: fmt.Errorf("idp metadata is required")}
	}
	return nil
}

// Orchestrator drives the SAML exchange. It holds no per-login state: each
// BeginLogin/CompleteLogin call is independent.
type Orchestrator struct {
	cfg    *TrustConfig
	sp     *saml2.SAMLServiceProvider
	mapper *identity.Mapper
	logger *observability.Logger
}

// NewOrchestrator parses the IdP metadata and constructs the service
// provider. Any defect in the trust configuration is a ProtocolConfigError.
func NewOrchestrator(cfg *TrustConfig, mapper *identity.Mapper, logger *observability.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var metadata types.EntityDescriptor
	if err := xml.Unmarshal(cfg.IDPMetadataXML, &metadata); err != nil {
		return nil, &ProtocolConfigError{Op: "parse metadata", Err: err}
	}
	if metadata.IDPSSODescriptor == nil {
		return nil, &ProtocolConfigError{Op: "parse metadata", Err: fmt.Errorf("metadata has no IDPSSODescriptor")}
	}

	certStore, err := certStoreFromMetadata(&metadata)
	if err != nil {
		return nil, err
	}
	if len(certStore.Roots) == 0 && !cfg.SkipSignatureValidation {
		return nil, &ProtocolConfigError{Op: "parse metadata", Err: fmt.Errorf("metadata contains no signing certificates")}
	}

	ssoURL, err := ssoURLFromMetadata(&metadata)
	if err != nil {
		return nil, err
	}

	keyStore, err := keyStoreFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	audience := cfg.AudienceURI
	if audience == "" {
		audience = cfg.EntityID
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      ssoURL,
		IdentityProviderIssuer:      metadata.EntityID,
		ServiceProviderIssuer:       cfg.EntityID,
		AssertionConsumerServiceURL: cfg.ACSURL,
		SignAuthnRequests:           cfg.SignRequests,
		AudienceURI:                 audience,
		IDPCertificateStore:         certStore,
		SPKeyStore:                  keyStore,
		SkipSignatureValidation:     cfg.SkipSignatureValidation,
	}
	if cfg.NameIDFormat != "" {
		sp.NameIdFormat = cfg.NameIDFormat
	}

	return &Orchestrator{
		cfg:    cfg,
		sp:     sp,
		mapper: mapper,
		logger: logger,
	}, nil
}

// BeginLogin builds the IdP-bound authentication request and returns the URL
// to redirect the browser to
func (o *Orchestrator) BeginLogin(r *http.Request, relayState string) (string, error) {
	sp := o.spForRequest(r)

	authURL, err := sp.BuildAuthURL(relayState)
	if err != nil {
		return "", &ProtocolConfigError{Op: "build auth request", Err: err}
	}
	return authURL, nil
}

// CompleteLogin validates the base64-encoded SAMLResponse payload and maps
// the asserted attributes to an Identity. Every failure mode collapses to an
// AuthError; the distinction between a bad signature and bad attributes is
// logged but not exposed.
func (o *Orchestrator) CompleteLogin(ctx context.Context, samlResponse string) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if samlResponse == "" {
		return nil, authErr(ReasonMalformedResponse, fmt.Errorf("empty SAMLResponse"))
	}
	if _, err := base64.StdEncoding.DecodeString(samlResponse); err != nil {
		o.logger.WithError(err).Warn("SAML response is not valid base64")
		return nil, authErr(ReasonMalformedResponse, err)
	}

	assertionInfo, err := o.sp.RetrieveAssertionInfo(samlResponse)
	if err != nil {
		o.logger.WithError(err).Warn("SAML assertion validation failed")
		return nil, authErr(ReasonInvalidAssertion, err)
	}

	if wi := assertionInfo.WarningInfo; wi != nil {
		if wi.InvalidTime {
			o.logger.Warn("SAML assertion outside its validity window")
			return nil, authErr(ReasonStaleAssertion, fmt.Errorf("assertion time invalid"))
		}
		if wi.NotInAudience {
			o.logger.Warn("SAML assertion audience mismatch")
			return nil, authErr(ReasonAudienceMismatch, fmt.Errorf("assertion not in audience"))
		}
	}

	attrs := make(identity.Attributes, len(assertionInfo.Values))
	for _, attr := range assertionInfo.Values {
		values := make([]string, 0, len(attr.Values))
		for _, v := range attr.Values {
			values = append(values, v.Value)
		}
		attrs[attr.Name] = values
	}

	id, err := o.mapper.Map(assertionInfo.NameID, attrs)
	if err != nil {
		o.logger.WithError(err).Warn("SAML attributes could not be mapped to an identity")
		return nil, authErr(ReasonUnmappable, err)
	}

	o.logger.WithField("email", id.Email).Info("user authenticated via SAML")
	return id, nil
}

// Metadata returns this service provider's metadata document for IdP
// registration
func (o *Orchestrator) Metadata() ([]byte, error) {
	md, err := o.sp.Metadata()
	if err != nil {
		return nil, &ProtocolConfigError{Op: "generate metadata", Err: err}
	}
	out, err := xml.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, &ProtocolConfigError{Op: "generate metadata", Err: err}
	}
	return append([]byte(xml.Header), out...), nil
}

// spForRequest resolves a path-only ACS URL against the inbound request.
// Absolute ACS URLs use the shared provider as-is.
func (o *Orchestrator) spForRequest(r *http.Request) *saml2.SAMLServiceProvider {
	if !strings.HasPrefix(o.cfg.ACSURL, "/") {
		return o.sp
	}
	sp := *o.sp
	sp.AssertionConsumerServiceURL = requestScheme(r) + "://" + r.Host + o.cfg.ACSURL
	return &sp
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func certStoreFromMetadata(metadata *types.EntityDescriptor) (*dsig.MemoryX509CertificateStore, error) {
	certStore := &dsig.MemoryX509CertificateStore{Roots: []*x509.Certificate{}}

	for _, kd := range metadata.IDPSSODescriptor.KeyDescriptors {
		for _, xcert := range kd.KeyInfo.X509Data.X509Certificates {
			if xcert.Data == "" {
				continue
			}
			der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(xcert.Data), ""))
			if err != nil {
				return nil, &ProtocolConfigError{Op: "decode idp certificate", Err: err}
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				return nil, &ProtocolConfigError{Op: "parse idp certificate", Err: err}
			}
			certStore.Roots = append(certStore.Roots, cert)
		}
	}
	return certStore, nil
}

func ssoURLFromMetadata(metadata *types.EntityDescriptor) (string, error) {
	services := metadata.IDPSSODescriptor.SingleSignOnServices
	if len(services) == 0 {
		return "", &ProtocolConfigError{Op: "parse metadata", Err: fmt.Errorf("metadata has no SingleSignOnService")}
	}
	for _, svc := range services {
		if svc.Binding == bindingHTTPRedirect {
			return svc.Location, nil
		}
	}
	return services[0].Location, nil
}

func keyStoreFromConfig(cfg *TrustConfig) (dsig.X509KeyStore, error) {
	if cfg.SPPrivateKeyPEM == "" {
		return nil, nil
	}

	certBlock, _ := pem.Decode([]byte(cfg.SPCertificatePEM))
	if certBlock == nil {
		return nil, &ProtocolConfigError{Op: "parse sp certificate", Err: fmt.Errorf("invalid certificate PEM")}
	}

	keyBlock, _ := pem.Decode([]byte(cfg.SPPrivateKeyPEM))
	if keyBlock == nil {
		return nil, &ProtocolConfigError{Op: "parse sp key", Err: fmt.Errorf("invalid private key PEM")}
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		pkcs8Key, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
		if err != nil {
			return nil, &ProtocolConfigError{Op: "parse sp key", Err: err}
		}
		var ok bool
		privateKey, ok = pkcs8Key.(*rsa.PrivateKey)
		if !ok {
			return nil, &ProtocolConfigError{Op: "parse sp key", Err: fmt.Errorf("private key is not RSA")}
		}
	}

	return &dsig.TLSCertKeyStore{
		PrivateKey:  privateKey,
		Certificate: [][]byte{certBlock.Bytes},
	}, nil
}
