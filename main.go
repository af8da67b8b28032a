// ABOUTME: Entry point for the SpeakWire player
// ABOUTME: Parses CLI flags and streams spoken text from a SpeakWire server
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SpeakWire/speakwire-go/internal/client"
	"github.com/SpeakWire/speakwire-go/internal/discovery"
	"github.com/SpeakWire/speakwire-go/internal/ui"
	"github.com/SpeakWire/speakwire-go/internal/version"
	"github.com/SpeakWire/speakwire-go/pkg/speakwire"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	serverURL  = flag.String("server", "", "Server URL (skip mDNS discovery)")
	voice      = flag.String("voice", "", "Voice to synthesize with")
	text       = flag.String("text", "Hello from SpeakWire.", "Text to speak")
	codec      = flag.String("format", "pcm", "Stream codec: pcm, opus, or mp3")
	sampleRate = flag.Int("sample-rate", 24000, "Stream sample rate in Hz")
	volume     = flag.Int("volume", 100, "Initial volume (0-100)")
	logFile    = flag.String("log-file", "speakwire-player.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
		log.Printf("Starting %s %s", version.Product, version.Version)
	}

	// Discover a server when none is given
	server := *serverURL
	if server == "" {
		log.Printf("Starting server discovery...")
		disc := discovery.NewManager()
		disc.Browse()

		select {
		case info := <-disc.Servers():
			server = info.URL()
			log.Printf("Discovered server %s at %s", info.Name, server)
		case <-time.After(10 * time.Second):
			log.Fatalf("No server found after 10 seconds")
		}
		disc.Stop()
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	speaker, err := speakwire.New(speakwire.Config{
		ServerURL:  server,
		Voice:      *voice,
		Codec:      *codec,
		SampleRate: *sampleRate,
		Volume:     *volume,
		OnStateChange: func(s speakwire.Status) {
			msg := ui.StatusMsg{
				State:     s.State,
				Scheduled: s.Scheduled,
				Played:    s.Played,
				Dropped:   s.Dropped,
				Pending:   s.Pending,
			}
			if s.Err != nil {
				msg.Err = s.Err.Error()
			}
			updateTUI(msg)
			log.Printf("Session state: %s", s.State)
		},
		OnError: func(err error) {
			log.Printf("Session error: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create speaker: %v", err)
	}

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(server, *voice, *text, waveformSource{speaker}, controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	// Probe the server before speaking so a bad URL fails fast
	if err := probeHealth(server); err != nil {
		log.Printf("Server health check failed: %v", err)
	}

	if err := speaker.Speak(*text); err != nil {
		log.Fatalf("Failed to start speaking: %v", err)
	}

	if controls != nil {
		go handleControls(speaker, *text, controls)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		// Headless mode: exit when the session finishes or on signal
		select {
		case <-speaker.Done():
			status := speaker.Status()
			log.Printf("Session finished: %s", status.State)
			if status.Err != nil {
				log.Printf("Session error: %v", status.Err)
			}
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	}

	if err := speaker.Close(); err != nil {
		log.Printf("Error closing speaker: %v", err)
	}

	log.Printf("Player stopped")
}

// waveformSource adapts the speaker to the TUI's sample source.
type waveformSource struct {
	speaker *speakwire.Speaker
}

func (w waveformSource) Samples(n int) []float64 {
	return w.speaker.Waveform(n)
}

// probeHealth checks the health endpoint of HTTP servers. WebSocket
// servers have no probe; these report at session open instead.
func probeHealth(server string) error {
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.NewHTTP(server).Health(ctx)
}

// handleControls processes speak/stop commands from the TUI.
func handleControls(speaker *speakwire.Speaker, text string, controls *ui.Controls) {
	for {
		select {
		case <-controls.Speak:
			log.Printf("Speak requested from TUI")
			if err := speaker.Speak(text); err != nil {
				log.Printf("Speak failed: %v", err)
			}
		case <-controls.Stop:
			log.Printf("Stop requested from TUI")
			speaker.Stop()
		case <-controls.Quit:
			return
		}
	}
}
