package utils

import "time"

type MetricChans struct {
	DatabaseRead  chan float64
	DatabaseWrite chan float64
	Checkin       chan string
}

func NewMetricChans() *MetricChans {
	return &MetricChans{
		DatabaseRead:  make(chan float64, 64),
		DatabaseWrite: make(chan float64, 64),
		Checkin:       make(chan string, 64),
	}
}

// Sends the elapsed microseconds since start, dropped if nobody is listening.
func (m *MetricChans) ObserveRead(start time.Time) {
	select {
	case m.DatabaseRead <- float64(time.Since(start).Microseconds()):
	default:
	}
}

func (m *MetricChans) ObserveWrite(start time.Time) {
	select {
	case m.DatabaseWrite <- float64(time.Since(start).Microseconds()):
	default:
	}
}

// Records a successful check-in with its method tag.
func (m *MetricChans) ObserveCheckin(method string) {
	select {
	case m.Checkin <- method:
	default:
	}
}
