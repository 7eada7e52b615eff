// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityIngest                      // Access token with ingest scope required
)

// RouteSecurityConfig maps route names to their required security level
var RouteSecurityConfig = map[string]SecurityLevel{
	// Marketplace - Public
	"ListListings":       SecurityPublic,
	"GetListing":         SecurityPublic,
	"GetCollectionStats": SecurityPublic,
	"ListAttributes":     SecurityPublic,
	"ListIssuedTokens":   SecurityPublic,
	"ListRevocable":      SecurityPublic,
	"ListPaymentMints":   SecurityPublic,
	"Health":             SecurityPublic,

	// Auth - Public (API key checked by the handler)
	"IssueToken": SecurityPublic,

	// gRPC health - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"/grpc.health.v1.Health/List":  SecurityPublic,

	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityPublic,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityPublic,

	// Ingest - Ingest Protected
	"IngestTokens":       SecurityIngest,
	"IngestPaymentMints": SecurityIngest,
	"IngestEvents":       SecurityIngest,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := RouteSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityIngest
}
