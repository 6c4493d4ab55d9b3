// Package version reports the version of this library as linked into the
// running binary. Telemetry uses it as the instrumentation scope version and
// as the default service.version resource attribute.
package version
