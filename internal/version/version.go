// ABOUTME: Version information for ClipChat
// ABOUTME: Product identity reported in the remote handshake and mDNS records
package version

const (
	// Version is the current ClipChat version
	Version = "0.3.0"

	// Product is the product name
	Product = "ClipChat"

	// Manufacturer is the manufacturer name
	Manufacturer = "harperreed"
)
