package log

import (
	"go.uber.org/zap"
)

var (
	Skip        = zap.Skip
	Binary      = zap.Binary
	Bool        = zap.Bool
	ByteString  = zap.ByteString
	Float64     = zap.Float64
	Float32     = zap.Float32
	Int         = zap.Int
	Int64       = zap.Int64
	Int32       = zap.Int32
	Uint32      = zap.Uint32
	String      = zap.String
	Strings     = zap.Strings
	Reflect     = zap.Reflect
	Stringer    = zap.Stringer
	Time        = zap.Time
	Duration    = zap.Duration
	Any         = zap.Any
	Namespace   = zap.Namespace
	ErrorField  = zap.Error
	NamedError  = zap.NamedError
	StackSkip   = zap.StackSkip
	Float64s    = zap.Float64s
	Ints        = zap.Ints
	Durations   = zap.Durations
	ObjectField = zap.Object
)
