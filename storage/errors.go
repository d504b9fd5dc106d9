package storage

import (
	"errors"

	"github.com/go-redsync/redsync/v4"
)

var (
	ErrLockFailed         = redsync.ErrFailed
	ErrLockAlreadyExpired = redsync.ErrLockAlreadyExpired
	ErrManifestInvalid    = errors.New("run manifest is invalid")
	ErrRunNotFound        = errors.New("run not found")
)
