package models

import (
	"fmt"
	"strings"
	"time"
)

// Channel is one of the instrument's wavelength channels.
type Channel string

const (
	ChannelUV    Channel = "UV"
	ChannelBlue  Channel = "Blue"
	ChannelGreen Channel = "Green"
	ChannelRed   Channel = "Red"
	ChannelIR    Channel = "IR"
)

// Channels lists every wavelength channel the instrument reports.
var Channels = []Channel{ChannelUV, ChannelBlue, ChannelGreen, ChannelRed, ChannelIR}

// ParseChannel resolves a case-insensitive channel name.
func ParseChannel(s string) (Channel, error) {
	for _, ch := range Channels {
		if strings.EqualFold(s, string(ch)) {
			return ch, nil
		}
	}
	return "", fmt.Errorf("unknown wavelength channel: %q", s)
}

// Prefix returns the lowercased column prefix used in instrument exports
// (e.g. "blue" for blueATN1/blueBC1).
func (c Channel) Prefix() string {
	return strings.ToLower(string(c))
}

// Reading is one validated row for a single wavelength channel.
// RawBC is nil when the concentration cell was absent or a NaN sentinel.
type Reading struct {
	Timestamp   time.Time
	Attenuation float64
	RawBC       *float64
}
