// ABOUTME: Version constants for the chorus audio runtime
// ABOUTME: Shared by the soundboard and anything else that reports itself
package version

const (
	// Version is the chorus release version
	Version = "0.1.0"

	// Product is the runtime name reported in logs
	Product = "chorus"

	// Manufacturer identifies the framework this runtime ships with
	Manufacturer = "embergarde"
)
