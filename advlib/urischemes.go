package advlib

// uriSchemeNames maps a URI AD scheme code point to its scheme name
// (Bluetooth Assigned Numbers, URI Scheme Name String Mapping).
// Code point 0 is reserved; 0x01 is the empty scheme.
var uriSchemeNames = [...]string{
	0x00: "",
	0x01: "",
	0x02: "aaa:",
	0x03: "aaas:",
	0x04: "about:",
	0x05: "acap:",
	0x06: "acct:",
	0x07: "cap:",
	0x08: "cid:",
	0x09: "coap:",
	0x0a: "coaps:",
	0x0b: "crid:",
	0x0c: "data:",
	0x0d: "dav:",
	0x0e: "dict:",
	0x0f: "dns:",
	0x10: "file:",
	0x11: "ftp:",
	0x12: "geo:",
	0x13: "go:",
	0x14: "gopher:",
	0x15: "h323:",
	0x16: "http:",
	0x17: "https:",
	0x18: "iax:",
	0x19: "icap:",
	0x1a: "im:",
	0x1b: "imap:",
	0x1c: "info:",
	0x1d: "ipp:",
	0x1e: "ipps:",
	0x1f: "iris:",
	0x20: "iris.beep:",
	0x21: "iris.xpc:",
	0x22: "iris.xpcs:",
	0x23: "iris.lwz:",
	0x24: "jabber:",
	0x25: "ldap:",
	0x26: "mailto:",
	0x27: "mid:",
	0x28: "msrp:",
	0x29: "msrps:",
	0x2a: "mtqp:",
	0x2b: "mupdate:",
	0x2c: "news:",
	0x2d: "nfs:",
	0x2e: "ni:",
	0x2f: "nih:",
	0x30: "nntp:",
	0x31: "opaquelocktoken:",
	0x32: "pop:",
	0x33: "pres:",
	0x34: "reload:",
	0x35: "rtsp:",
	0x36: "rtsps:",
	0x37: "rtspu:",
	0x38: "service:",
	0x39: "session:",
	0x3a: "shttp:",
	0x3b: "sieve:",
	0x3c: "sip:",
	0x3d: "sips:",
	0x3e: "sms:",
	0x3f: "snmp:",
	0x40: "soap.beep:",
	0x41: "soap.beeps:",
	0x42: "stun:",
	0x43: "stuns:",
	0x44: "tag:",
	0x45: "tel:",
	0x46: "telnet:",
	0x47: "tftp:",
	0x48: "thismessage:",
	0x49: "tn3270:",
	0x4a: "tip:",
	0x4b: "turn:",
	0x4c: "turns:",
	0x4d: "tv:",
	0x4e: "urn:",
	0x4f: "vemmi:",
	0x50: "ws:",
	0x51: "wss:",
	0x52: "xcon:",
	0x53: "xcon-userid:",
	0x54: "xmlrpc.beep:",
	0x55: "xmlrpc.beeps:",
	0x56: "xmpp:",
	0x57: "z39.50r:",
	0x58: "z39.50s:",
}

// uriScheme returns the scheme name for code, ok is false for the reserved
// code point 0 and anything past the table.
func uriScheme(code byte) (string, bool) {
	if code == 0 || int(code) >= len(uriSchemeNames) {
		return "", false
	}
	return uriSchemeNames[code], true
}
