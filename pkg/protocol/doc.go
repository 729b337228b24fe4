/*
Package protocol defines the JSON messages exchanged between a host and the
slicing engine.

Every message is an object with a "type" and an optional "payload":

	{"type":"SLICE","payload":{"stlData":"<base64>","settings":{"layerHeight":0.2,"infill":15}}}
	{"type":"CANCEL"}

	{"type":"STATUS","payload":"Slicing started..."}
	{"type":"PROGRESS","payload":42}
	{"type":"COMPLETE","payload":"; generated by ...\nM84"}
	{"type":"ERROR","payload":"decode error: illegal base64 data at input byte 12"}
	{"type":"CANCELLED","payload":"cancelled: context canceled"}

A SLICE payload may name a profile instead of, or in addition to, explicit
settings; explicit settings override the profile. Setting values are decoded
weakly, so "0.2" and 0.2 are both accepted.
*/
package protocol
