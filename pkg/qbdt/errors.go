package qbdt

import "fmt"

var (
	ErrNotSeparable      = fmt.Errorf("qbdt: requested range is not separable within epsilon")
	ErrInvalidQubitIndex = fmt.Errorf("qbdt: qubit index out of range")
	ErrNumericalDrift    = fmt.Errorf("qbdt: post-gate norm deviates from 1 beyond tolerance")
)
