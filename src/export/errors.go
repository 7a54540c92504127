package export

import "errors"

var (
	ErrNames  = errors.New("export: joint names do not match array")
	ErrColumn = errors.New("export: column out of range")
)
