// Package fallguard implements the gRPC transport of the surface.
//
// Messages travel as google.protobuf.Struct values; the wire package maps
// them to typed messages. The service descriptor is declared here so that
// the server, the console and the detector share one definition.
package fallguard
