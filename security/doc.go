// Package security builds TLS configurations from file-based settings.
//
// The same block serves both sides: ServerConfig for the HTTP listener
// (with optional client certificate verification) and ClientConfig for
// outbound connections such as Redis.
//
//	server:
//	  tls:
//	    enabled: true
//	    cert_file: /etc/authd/tls/cert.pem
//	    key_file: /etc/authd/tls/key.pem
package security
