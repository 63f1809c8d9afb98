package telnet

// A good place to start with the Telnet protocol is Wikipedia:
// https://en.wikipedia.org/wiki/Telnet
//
// Only the small slice of the protocol needed to keep a multiplexed line in
// a predictable binary-or-text mode is implemented here: the command bytes,
// the handful of options named in the initial offer, and BREAK.
//
// RFCs of particular interest:
// - RFC 854  : Telnet Protocol Specification
// - RFC 856  : Telnet Binary Transmission
// - RFC 857  : Telnet Echo Option
// - RFC 858  : Telnet Suppress Go Ahead Option
// - RFC 1184 : Telnet Linemode Option

const (
	// RFC 854: Telnet Protocol Specification
	SE   byte = 240 // Sub negotiation End
	NOP  byte = 241 // No Operation
	DM   byte = 242 // Data Mark
	BRK  byte = 243 // Break
	IP   byte = 244 // Interrupt Process
	AO   byte = 245 // Abort Output
	AYT  byte = 246 // Are You There?
	EC   byte = 247 // Erase Character
	EL   byte = 248 // Erase Line
	GA   byte = 249 // Go Ahead
	SB   byte = 250 // Sub negotiation Begin
	WILL byte = 251 // Will
	WONT byte = 252 // Won't
	DO   byte = 253 // Do
	DONT byte = 254 // Don't
	IAC  byte = 255 // Interpret As Command

	// Telnet Options
	TransmitBinary byte = 0  // RFC 856
	Echo           byte = 1  // RFC 857
	SGA            byte = 3  // RFC 858 - Suppress Go Ahead
	Linemode       byte = 34 // RFC 1184
)

// CommandNames maps Telnet command bytes to their string representation.
var CommandNames = map[byte]string{
	SE:   "SE",
	NOP:  "NOP",
	DM:   "DM",
	BRK:  "BRK",
	IP:   "IP",
	AO:   "AO",
	AYT:  "AYT",
	EC:   "EC",
	EL:   "EL",
	GA:   "GA",
	SB:   "SB",
	WILL: "WILL",
	WONT: "WONT",
	DO:   "DO",
	DONT: "DONT",
	IAC:  "IAC",
}

// OptionNames maps Telnet option bytes to their string representation.
var OptionNames = map[byte]string{
	TransmitBinary: "TransmitBinary",
	Echo:           "Echo",
	SGA:            "SGA",
	Linemode:       "Linemode",
}
