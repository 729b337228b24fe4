package protocol

import (
	"errors"
	"os"
	"strconv"
)

var (
	// DefaultMaxMessageSize bounds one inbound message (128 MiB of base64,
	// roughly a 96 MiB model).
	DefaultMaxMessageSize = 128 << 20
	// EnvMaxMessageSize is the environment variable to override the default.
	EnvMaxMessageSize = "SLICER_MAX_MESSAGE_SIZE"
)

// ErrMessageTooLarge is returned when an inbound message exceeds the size limit.
var ErrMessageTooLarge = errors.New("message exceeds maximum allowed size")

// MaxMessageSize returns the configured inbound message limit in bytes.
func MaxMessageSize() int {
	if val := os.Getenv(EnvMaxMessageSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxMessageSize
}
