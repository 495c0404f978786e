package minikv

import "errors"

var (
	ErrKeyNotFound = errors.New("key not found")
)
