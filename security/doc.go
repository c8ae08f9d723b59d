// Package security builds the client-side TLS configuration used by the
// transport. Settings arrive through the "tls" entry of a client option
// bag and are decoded into TLSConfig:
//
//	opts := capability.NewOptions("tls", map[string]any{
//	    "ca_file":     "/etc/ssl/internal-ca.pem",
//	    "min_version": "1.3",
//	})
package security
