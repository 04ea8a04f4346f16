package version

import "fmt"

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/keenpages/catalog/pkg/version.Version=1.4.0"
var Version = "dev"

// Product names the service in outbound request headers.
const Product = "keenpages-catalog"

// UserAgent is sent by every outbound HTTP client.
func UserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; %s/%s)", Product, Version)
}
