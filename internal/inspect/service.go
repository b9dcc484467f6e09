package inspect

import (
	"go.uber.org/zap"
)

const (
	// DefaultThreshold is the total key count from which databases are no
	// longer scanned unless one is selected explicitly.
	DefaultThreshold = 1000
	// DefaultValuePageSize is the number of list elements shown per page when
	// the caller does not ask for a count.
	DefaultValuePageSize = 100
	// DefaultSlowlogSize is the number of slow log entries fetched for stats.
	DefaultSlowlogSize = 10
)

// Service runs inspections over a connection supplied per call.
type Service struct {
	Threshold     int64
	ValuePageSize int64
	SlowlogSize   int64
	Logger        *zap.SugaredLogger
}

func (s *Service) threshold() int64 {
	if s == nil || s.Threshold <= 0 {
		return DefaultThreshold
	}
	return s.Threshold
}

func (s *Service) valuePageSize() int64 {
	if s == nil || s.ValuePageSize <= 0 {
		return DefaultValuePageSize
	}
	return s.ValuePageSize
}

func (s *Service) slowlogSize() int64 {
	if s == nil || s.SlowlogSize < 0 {
		return 0
	}
	if s.SlowlogSize == 0 {
		return DefaultSlowlogSize
	}
	return s.SlowlogSize
}

func (s *Service) log() *zap.SugaredLogger {
	if s == nil || s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}
