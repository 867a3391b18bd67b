//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows)

package transport

func setReuse(uintptr) error { return nil }
