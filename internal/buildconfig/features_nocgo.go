//go:build !cgo || !(linux || darwin)

package buildconfig

const nativeCompiled = false
