package frame

import (
	"strconv"
	"strings"

	"github.com/danmuck/samwise/internal/protocol"
)

const (
	ReplyOK    = 0
	ReplyError = -1
)

// ParseReply maps a samd reply onto success or a protocol error.
//
//	[rcode]            "0" success, "-1" error, anything else malformed
//	[error-message]?   present only when rcode == -1
func ParseReply(reply [][]byte) error {
	if len(reply) == 0 {
		return protocol.ResponseMalformed("empty reply")
	}
	rcode, err := strconv.Atoi(strings.TrimSpace(string(reply[0])))
	if err != nil {
		return protocol.ResponseMalformed("non-numeric rcode " + strconv.Quote(string(reply[0])))
	}
	switch rcode {
	case ReplyOK:
		return nil
	case ReplyError:
		if len(reply) < 2 {
			return protocol.ResponseMalformed("error reply without message")
		}
		return protocol.ResponseError(string(reply[1]))
	default:
		return protocol.ResponseMalformed("unexpected rcode " + strconv.Itoa(rcode))
	}
}
