// Package advlib decodes raw Bluetooth Low Energy advertising PDUs and their
// advertising data (AD) records into a Properties value.
//
// Decoding is pure and synchronous. Vendor-specific payloads are handed to an
// ordered list of caller-supplied Libraries, and identifiers (UUIDs, company
// codes) are resolved to a descriptive URI through an ordered list of Indices.
// The first non-empty answer in each list wins.
package advlib
