// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for everything except the SAML trust settings, which have no
// safe defaults and must be provided.
//
// # Configuration Structure
//
// Server settings:
//
//	DASHGATE_HOST="0.0.0.0"
//	DASHGATE_PORT="8080"
//	DASHGATE_ENVIRONMENT="production"
//	DASHGATE_FRONTEND_URL="https://dashboard.example.com"
//	DASHGATE_ALLOWED_ORIGINS="https://dashboard.example.com"
//
// SAML settings:
//
//	DASHGATE_SAML_ENTITY_ID="https://dashboard.example.com/saml"
//	DASHGATE_SAML_ACS_URL="https://dashboard.example.com/auth/callback"
//	DASHGATE_SAML_IDP_METADATA_PATH="/etc/dashgate/idp-metadata.xml"
//	DASHGATE_SAML_SP_CERT_PATH="/etc/dashgate/sp.crt"
//	DASHGATE_SAML_SP_KEY_PATH="/etc/dashgate/sp.key"
//	DASHGATE_ROLEMAP_PATH="/etc/dashgate/rolemap.yaml"
//
// Session settings:
//
//	DASHGATE_SESSION_TTL="8h"
//	DASHGATE_SESSION_SWEEP_INTERVAL="5m"
//	DASHGATE_SESSION_COOKIE_DOMAIN=""  # empty keeps the cookie host-only
//
// Rate limit settings:
//
//	DASHGATE_RATE_LIMIT="100"
//	DASHGATE_RATE_WINDOW="1m"
//	DASHGATE_REDIS_ADDR="redis:6379"  # empty selects the in-memory limiter
//
// Observability settings:
//
//	DASHGATE_LOG_LEVEL="info"  # debug, info, warn, error
//	DASHGATE_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Listen: %s\n", cfg.ListenAddr())
//	fmt.Printf("Entity ID: %s\n", cfg.SAML.EntityID)
//
// # Related Packages
//
//   - pkg/sso: Uses SAML configuration
//   - pkg/session: Uses session configuration
//   - pkg/middleware: Uses rate limit configuration
//   - pkg/observability: Uses observability configuration
package config
