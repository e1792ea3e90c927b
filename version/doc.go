// Package version reports build information for the json22-echo binary.
//
// Values are injected at link time and fall back to the VCS stamp:
//
//	go build -ldflags "-X github.com/kbukum/gokit-json22/version.Version=v1.0.0" ./cmd/json22-echo
package version
