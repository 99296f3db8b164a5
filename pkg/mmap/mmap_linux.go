//go:build linux

package mmap

import "syscall"

const madvSequential = syscall.MADV_SEQUENTIAL

func mapFile(fd, length int) ([]byte, error) {
	return syscall.Mmap(fd, 0, length, syscall.PROT_READ, syscall.MAP_SHARED)
}

func unmapFile(b []byte) error {
	return syscall.Munmap(b)
}

func advise(b []byte, advice int) error {
	return syscall.Madvise(b, advice)
}
