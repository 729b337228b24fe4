/*
Package slicer converts triangle meshes into fused-deposition motion programs
(G-code) inside the host process.

A conversion takes a base64 encoded binary STL payload and a set of print
settings. The engine decodes the payload, measures the model's bounding box,
and emits a fixed-form program: a preamble heating the bed and the nozzle, a
prime line, a skirt around the model footprint centered on the bed and a
zig-zag infill of the first layer.

# Concept

The Engine is a small state machine with two states, idle and running. A run
executes on a worker goroutine and reports its progress as an ordered stream of
events: STATUS messages, PROGRESS percentages that never decrease, and exactly
one terminal COMPLETE, ERROR or CANCELLED event, after which the stream is
closed. Work is split into chunks; the context is checked between chunks, so a
cancelled or expired context stops the run promptly.

# Usage

	eng := slicer.New(slicer.WithLogger(logger))

	events, err := eng.Convert(ctx, domain.ConversionRequest{
		MeshData: base64Payload,
		Settings: domain.DefaultSettings(),
	})
	if err != nil {
		return err // domain.ErrEngineBusy
	}

	for ev := range events {
		switch ev.Type {
		case domain.EventProgress:
			fmt.Println(ev.Percent)
		case domain.EventComplete:
			fmt.Println(ev.Program.String())
		case domain.EventError, domain.EventCancelled:
			fmt.Println(ev.Err)
		}
	}

Hosts that only want the result can call Slice, which blocks until the run ends.

# Hosts

The module ships a JSON-lines stdio bridge (pkg/bridge), an HTTP API with
server-sent events (pkg/adapters/http) and an MCP server (pkg/adapters/mcp),
all built on the same Engine.
*/
package slicer
