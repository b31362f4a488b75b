// File: control/doc.go
// Package control provides configuration, metrics, and diagnostics
// for netsess.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package control
