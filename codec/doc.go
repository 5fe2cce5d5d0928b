// Package codec defines the opaque value encoding used by patch entries.
//
// A patch stores each changed field as an encoded payload plus the path it
// lives at; the codec decides the payload format. JSON is the default,
// MessagePack and YAML are provided for hosts that already speak them.
package codec
