package protocol_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_Slice(t *testing.T) {
	line := `{"type":"SLICE","payload":{"stlData":"AAAA","settings":{"layerHeight":0.28,"infill":40,"bedTemp":70,"nozzleTemp":215,"useSupports":true}}}`

	cmd, err := protocol.DecodeCommand([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeSlice, cmd.Type)
	require.NotNil(t, cmd.Slice)

	req, err := cmd.Slice.Request(domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "AAAA", req.MeshData)
	assert.Equal(t, domain.Settings{
		LayerHeight:   0.28,
		InfillPercent: 40,
		BedTempC:      70,
		NozzleTempC:   215,
		UseSupports:   true,
	}, req.Settings)
}

func TestDecodeCommand_WeakSettings(t *testing.T) {
	line := `{"type":"SLICE","payload":{"stlData":"AAAA","profile":"fine","settings":{"layerHeight":"0.12","infill":"20","useSupports":"1"}}}`

	cmd, err := protocol.DecodeCommand([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, "fine", cmd.Slice.Profile)

	base := domain.DefaultSettings()
	base.NozzleTempC = 210
	got, err := cmd.Slice.Settings(base)
	require.NoError(t, err)
	assert.Equal(t, 0.12, got.LayerHeight)
	assert.Equal(t, 20, got.InfillPercent)
	assert.True(t, got.UseSupports)
	assert.Equal(t, 210, got.NozzleTempC, "fields without override keep the base value")
	assert.Equal(t, 60, got.BedTempC)
}

func TestDecodeCommand_NoSettingsUsesBase(t *testing.T) {
	cmd, err := protocol.DecodeCommand([]byte(`{"type":"SLICE","payload":{"stlData":"AAAA"}}`))
	require.NoError(t, err)

	got, err := cmd.Slice.Settings(domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestDecodeCommand_Cancel(t *testing.T) {
	cmd, err := protocol.DecodeCommand([]byte(`{"type":"CANCEL"}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeCancel, cmd.Type)
	assert.Nil(t, cmd.Slice)
}

func TestDecodeCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `SLICE`},
		{"missing type", `{"payload":{}}`},
		{"unknown type", `{"type":"PRINT"}`},
		{"no payload", `{"type":"SLICE"}`},
		{"null payload", `{"type":"SLICE","payload":null}`},
		{"payload not object", `{"type":"SLICE","payload":"AAAA"}`},
		{"empty mesh", `{"type":"SLICE","payload":{"stlData":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.DecodeCommand([]byte(tt.line))
			assert.ErrorIs(t, err, protocol.ErrInvalidCommand)
		})
	}
}

func TestDecodeSettings_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"unknown key", map[string]any{"speed": 100}},
		{"not a number", map[string]any{"layerHeight": "thin"}},
		{"not a bool", map[string]any{"useSupports": "maybe"}},
		{"fractional infill", map[string]any{"infill": 15.7}},
		{"fractional bed temp", map[string]any{"bedTemp": 60.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := domain.DefaultSettings()
			got, err := protocol.DecodeSettings(tt.raw, base)
			assert.ErrorIs(t, err, domain.ErrInvalidSettings)
			assert.Equal(t, base, got)
		})
	}
}

func TestDecodeSettings_WholeFloats(t *testing.T) {
	got, err := protocol.DecodeSettings(map[string]any{"infill": 20.0, "nozzleTemp": "210"}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 20, got.InfillPercent)
	assert.Equal(t, 210, got.NozzleTempC)
}

func TestFromRun(t *testing.T) {
	tests := []struct {
		run     domain.Run
		want    protocol.MessageType
		payload string
	}{
		{domain.Run{ID: "a", Status: domain.RunComplete, Program: "G28"}, protocol.TypeComplete, "G28"},
		{domain.Run{ID: "b", Status: domain.RunFailed, Error: "decode error"}, protocol.TypeError, "decode error"},
		{domain.Run{ID: "c", Status: domain.RunCancelled, Error: "cancelled"}, protocol.TypeCancelled, "cancelled"},
	}
	for _, tt := range tests {
		msg, ok := protocol.FromRun(&tt.run)
		require.True(t, ok, tt.run.ID)
		assert.Equal(t, tt.want, msg.Type)
		assert.Equal(t, tt.payload, msg.Payload)
		assert.Equal(t, tt.run.ID, msg.RunID)
	}

	_, ok := protocol.FromRun(&domain.Run{ID: "d", Status: domain.RunRunning})
	assert.False(t, ok)
}

func TestFromEvent(t *testing.T) {
	prog := &domain.MotionProgram{}
	prog.Append("G28", "M84")

	tests := []struct {
		name string
		ev   domain.Event
		want string
	}{
		{"status", domain.Event{Type: domain.EventStatus, Status: "Slicing started..."}, `{"type":"STATUS","payload":"Slicing started..."}`},
		{"progress", domain.Event{Type: domain.EventProgress, Percent: 42, RunID: "r"}, `{"type":"PROGRESS","payload":42,"runId":"r"}`},
		{"complete", domain.Event{Type: domain.EventComplete, Program: prog}, `{"type":"COMPLETE","payload":"G28\nM84"}`},
		{"error", domain.Event{Type: domain.EventError, Err: errors.New("boom")}, `{"type":"ERROR","payload":"boom"}`},
		{"cancelled", domain.Event{Type: domain.EventCancelled, Err: domain.ErrCancelled}, `{"type":"CANCELLED","payload":"cancelled"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(protocol.FromEvent(tt.ev))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestFromEvent_ZeroProgressKeepsPayload(t *testing.T) {
	msg := protocol.FromEvent(domain.Event{Type: domain.EventProgress, Percent: 0})
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	// omitempty applies to the interface value, not the wrapped zero
	assert.JSONEq(t, `{"type":"PROGRESS","payload":0}`, string(data))
}

func TestSliceMessage_RoundTrip(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.InfillPercent = 100

	data, err := json.Marshal(protocol.Slice("AAAA", settings))
	require.NoError(t, err)

	cmd, err := protocol.DecodeCommand(data)
	require.NoError(t, err)
	got, err := cmd.Slice.Settings(domain.Settings{})
	require.NoError(t, err)
	assert.Equal(t, settings, got)
}
