// Package version reports the build identity of the binary.
//
// Values are stamped at link time and fall back to the VCS settings the
// Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/authkit/version.Version=1.4.0 \
//	    -X github.com/kbukum/authkit/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/authd
package version
