//go:build cgo && (linux || darwin)

package buildconfig

const nativeCompiled = true
