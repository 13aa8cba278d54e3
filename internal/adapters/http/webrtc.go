package http

import (
	"github.com/pion/webrtc/v4"

	"github.com/hireeflow/interviewd/internal/config"
)

// iceConfiguration builds the configuration clients feed to their
// RTCPeerConnection. The server itself never opens a peer connection;
// media stays browser-to-browser.
func iceConfiguration(cfg *config.Config) webrtc.Configuration {
	urls := cfg.StunURLs
	if len(urls) == 0 {
		urls = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: urls},
		},
	}
}
