package model

// Kind is the classified shape of an inbound message.
type Kind string

const (
	KindUnrecognized Kind = "unrecognized"
	KindPhone        Kind = "phone"
	KindIPv4         Kind = "ipv4"
)

// Identifier is the classified form of a user's raw text.
type Identifier struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Raw  string `json:"raw" yaml:"raw"`
}

// Phone returns a phone identifier for raw.
func Phone(raw string) Identifier { return Identifier{Kind: KindPhone, Raw: raw} }

// IPv4 returns an IPv4 identifier for raw.
func IPv4(raw string) Identifier { return Identifier{Kind: KindIPv4, Raw: raw} }

// Unrecognized returns an identifier for text that matched no rule.
func Unrecognized(raw string) Identifier { return Identifier{Kind: KindUnrecognized, Raw: raw} }
