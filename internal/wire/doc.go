// Package wire maps domain types to the messages exchanged over gRPC and
// stored in the alert mailbox.
//
// Messages travel as google.protobuf.Struct values. Each message type here
// is a plain Go struct with JSON tags; Encode and Decode convert between
// the struct and its protobuf form.
package wire
