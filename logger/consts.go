package logger

import (
	"github.com/facebookincubator/go-belt/tool/logger"
)

type Level = logger.Level

const (
	LevelUndefined = logger.LevelUndefined
	LevelError     = logger.LevelError
	LevelWarning   = logger.LevelWarning
	LevelInfo      = logger.LevelInfo
	LevelDebug     = logger.LevelDebug
	LevelTrace     = logger.LevelTrace
)
