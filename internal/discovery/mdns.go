// ABOUTME: mDNS discovery of local speech services
// ABOUTME: Browses for _speakwire._tcp servers on the local network
package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/mdns"
)

// serviceType is the mDNS service speech servers advertise.
const serviceType = "_speakwire._tcp"

// queryTimeout bounds one mdns.Query round; it also paces the browse loop.
const queryTimeout = 3 * time.Second

// ServerInfo describes a discovered speech server.
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// URL returns the server's HTTP base URL.
func (s *ServerInfo) URL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// Manager browses the local network for speech servers.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// NewManager creates a discovery manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Browse starts searching for speech servers.
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop repeatedly queries until stopped.
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				server := &ServerInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("Discovered speech server: %s at %s:%d", server.Name, server.Host, server.Port)

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		mdns.Query(queryParams(entries))
		close(entries)
	}
}

// queryParams builds one browse round's query parameters.
func queryParams(entries chan *mdns.ServiceEntry) *mdns.QueryParam {
	return &mdns.QueryParam{
		Service: serviceType,
		Domain:  "local",
		Timeout: queryTimeout,
		Entries: entries,
	}
}

// Servers returns the channel of discovered servers.
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager.
func (m *Manager) Stop() {
	m.cancel()
}
