// File: api/doc.go
// Package api defines the public contracts of netsess.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The api package contains only interfaces, error values, and plain
// value types shared across the library. It has no dependencies on
// other netsess packages so that transports, sessions, and fakes can
// all implement the same contracts without import cycles.
package api
