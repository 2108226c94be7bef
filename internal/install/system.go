package install

import (
	"os"
)

// System abstracts the filesystem and process operations the pipeline performs
// outside its component packages.
type System interface {
	Getwd() (string, error)
	Remove(name string) error
	RemoveAll(path string) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Getwd returns the current working directory.
func (RealSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Remove removes the named file or empty directory.
func (RealSystem) Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
