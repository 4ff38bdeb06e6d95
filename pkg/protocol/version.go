// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package protocol provides the TLS wire format
package protocol

import "fmt"

// Version enums.
var (
	Version1_0 = Version{Major: 0x03, Minor: 0x01} //nolint:gochecknoglobals
	Version1_1 = Version{Major: 0x03, Minor: 0x02} //nolint:gochecknoglobals
	Version1_2 = Version{Major: 0x03, Minor: 0x03} //nolint:gochecknoglobals
)

// Version is the minor/major value in the RecordLayer
// and ClientHello/ServerHello
//
// https://tools.ietf.org/html/rfc5246#section-6.2.1
type Version struct {
	Major, Minor uint8
}

// Equal determines if two protocol versions are equal.
func (v Version) Equal(x Version) bool {
	return v.Major == x.Major && v.Minor == x.Minor
}

func (v Version) String() string {
	switch {
	case v.Equal(Version1_0):
		return "TLS 1.0"
	case v.Equal(Version1_1):
		return "TLS 1.1"
	case v.Equal(Version1_2):
		return "TLS 1.2"
	}

	return fmt.Sprintf("Version(%d.%d)", v.Major, v.Minor)
}

// IsSupportedVersion returns true for the only version this module negotiates, TLS 1.2.
func IsSupportedVersion(v Version) bool {
	return v.Equal(Version1_2)
}

// IsValidRecordVersion returns true if v can appear in a TLS record header.
// Record headers carry 3.x for every TLS version up to 1.2.
func IsValidRecordVersion(v Version) bool {
	return v.Major == 0x03
}
