package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidCommand is returned for inbound messages that cannot be understood.
var ErrInvalidCommand = errors.New("invalid command")

// MessageType discriminates protocol messages.
type MessageType string

const (
	TypeSlice  MessageType = "SLICE"
	TypeCancel MessageType = "CANCEL"

	TypeStatus    = MessageType(domain.EventStatus)
	TypeProgress  = MessageType(domain.EventProgress)
	TypeComplete  = MessageType(domain.EventComplete)
	TypeError     = MessageType(domain.EventError)
	TypeCancelled = MessageType(domain.EventCancelled)
)

// Message is the envelope of every line on the wire.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
	RunID   string      `json:"runId,omitempty"`
}

// Command is a decoded inbound message.
type Command struct {
	Type  MessageType
	Slice *SliceCommand
}

// SliceCommand is the payload of a SLICE message.
type SliceCommand struct {
	MeshData string `json:"stlData"`
	Profile  string `json:"profile,omitempty"`
	// Overrides holds the raw settings object, applied over a base by Settings.
	Overrides map[string]any `json:"settings,omitempty"`
}

type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeCommand parses one inbound message.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}

	switch env.Type {
	case TypeCancel:
		return Command{Type: TypeCancel}, nil
	case TypeSlice:
		var sc SliceCommand
		if len(env.Payload) == 0 || string(env.Payload) == "null" {
			return Command{}, fmt.Errorf("%w: SLICE without payload", ErrInvalidCommand)
		}
		if err := json.Unmarshal(env.Payload, &sc); err != nil {
			return Command{}, fmt.Errorf("%w: SLICE payload: %v", ErrInvalidCommand, err)
		}
		if sc.MeshData == "" {
			return Command{}, fmt.Errorf("%w: SLICE payload without stlData", ErrInvalidCommand)
		}
		return Command{Type: TypeSlice, Slice: &sc}, nil
	case "":
		return Command{}, fmt.Errorf("%w: missing type", ErrInvalidCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, env.Type)
	}
}

// Settings applies the overrides of the command on top of base.
func (c *SliceCommand) Settings(base domain.Settings) (domain.Settings, error) {
	if len(c.Overrides) == 0 {
		return base, nil
	}
	return DecodeSettings(c.Overrides, base)
}

// DecodeSettings decodes a loosely typed settings map over base. Numeric strings
// and booleans spelled as strings or numbers are accepted; unknown keys and
// fractional values for integer settings are not.
func DecodeSettings(raw map[string]any, base domain.Settings) (domain.Settings, error) {
	out := base
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       integralHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &out,
	})
	if err != nil {
		return base, err
	}
	if err := dec.Decode(raw); err != nil {
		return base, fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	return out, nil
}

// integralHook rejects floats with a fractional part bound for integer fields,
// which weak decoding would otherwise truncate.
func integralHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}
	var v float64
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		v = reflect.ValueOf(data).Float()
	default:
		return data, nil
	}
	if math.Trunc(v) != v {
		return nil, fmt.Errorf("%v is not a whole number", v)
	}
	return data, nil
}

// Request builds the conversion request of a SLICE command.
func (c *SliceCommand) Request(base domain.Settings) (domain.ConversionRequest, error) {
	settings, err := c.Settings(base)
	if err != nil {
		return domain.ConversionRequest{}, err
	}
	return domain.ConversionRequest{MeshData: c.MeshData, Settings: settings}, nil
}

// FromEvent maps an engine event to its outbound message.
func FromEvent(ev domain.Event) Message {
	msg := Message{Type: MessageType(ev.Type), RunID: ev.RunID}
	switch ev.Type {
	case domain.EventStatus:
		msg.Payload = ev.Status
	case domain.EventProgress:
		msg.Payload = ev.Percent
	case domain.EventComplete:
		msg.Payload = ev.Program.String()
	default:
		msg.Payload = ev.Message()
	}
	return msg
}

// FromRun rebuilds the terminal message of a finished run from its record.
// It reports false while the run is still running.
func FromRun(run *domain.Run) (Message, bool) {
	msg := Message{RunID: run.ID}
	switch run.Status {
	case domain.RunComplete:
		msg.Type, msg.Payload = TypeComplete, run.Program
	case domain.RunFailed:
		msg.Type, msg.Payload = TypeError, run.Error
	case domain.RunCancelled:
		msg.Type, msg.Payload = TypeCancelled, run.Error
	default:
		return Message{}, false
	}
	return msg, true
}

// ErrorMessage builds an ERROR message that is not tied to a run, such as a
// rejected command.
func ErrorMessage(err error) Message {
	return Message{Type: TypeError, Payload: err.Error()}
}

// Slice builds an outbound SLICE message.
func Slice(meshData string, settings domain.Settings) Message {
	return Message{Type: TypeSlice, Payload: map[string]any{
		"stlData":  meshData,
		"settings": settings,
	}}
}
