// ABOUTME: Version constants
// ABOUTME: Identifies the player build
package version

const (
	Version      = "0.1.0"
	Product      = "SpeakWire Player"
	Manufacturer = "SpeakWire"
)
