package application

// Metrics receives operational counters from the services. The obs package
// provides the Prometheus implementation.
type Metrics interface {
	ObserveSurgeryOperation(operation, outcome string)
	ObserveSessionTransition(status SessionStatus, reason string)
	SetActiveSessions(count int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSurgeryOperation(string, string)          {}
func (noopMetrics) ObserveSessionTransition(SessionStatus, string) {}
func (noopMetrics) SetActiveSessions(int)                           {}

func defaultMetrics(m Metrics) Metrics {
	if m != nil {
		return m
	}
	return noopMetrics{}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
