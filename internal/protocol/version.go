package protocol

import "strconv"

const (
	VersionMajor = 0
	VersionMinor = 1
)

// Version is the protocol number samd checks on every request.
const Version = VersionMajor*100 + VersionMinor

// VersionString is the textual trailer frame value.
func VersionString() string {
	return strconv.Itoa(Version)
}
