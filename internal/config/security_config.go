// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic     SecurityLevel = iota // No authentication
	SecurityAccess                          // Operator access token required
	SecurityPrivileged                      // Access token carrying the privileged role
)

// EndpointSecurityConfig maps gRPC methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// AvailabilityService - Public (booking front end)
	"/rentstock.v1.AvailabilityService/GetConstraints":      SecurityPublic,
	"/rentstock.v1.AvailabilityService/ProjectAvailability": SecurityPublic,

	// AvailabilityService - Access Protected
	"/rentstock.v1.AvailabilityService/ListShortfalls": SecurityAccess,

	// Health checks
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityPrivileged
}
