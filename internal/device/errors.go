package device

import "fmt"

var (
	ErrNoDevices      = fmt.Errorf("device: registry has no devices")
	ErrUnknownDevice  = fmt.Errorf("device: unknown device id")
	ErrAlreadyPresent = fmt.Errorf("device: id already registered")
)
