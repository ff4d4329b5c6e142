package pkg

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDisabled       = errors.New("disabled")
	ErrPluginDeclined = errors.New("plugin declined")
	ErrRestart        = errors.New("restart")
	ErrStopFromAPI    = errors.New("stop from api")
)
