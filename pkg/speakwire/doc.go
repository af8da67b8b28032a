// ABOUTME: High-level SpeakWire library API
// ABOUTME: Provides a simple Speaker API for most use cases
// Package speakwire provides a high-level API for streaming synthesized
// speech from a SpeakWire server to the local audio device.
//
// This is the main entry point for most library users:
//   - Speaker: send text to a server and play the streamed audio
//
// For lower-level control, see the internal client, decode, player, and
// session packages.
//
// Example:
//
//	speaker, err := speakwire.New(speakwire.Config{
//	    ServerURL: "http://localhost:8080",
//	    Voice:     "ember",
//	})
//	err = speaker.Speak("Hello, world")
//	<-speaker.Done()
//	speaker.Close()
package speakwire
