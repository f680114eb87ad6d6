package application

import "fmt"

// TelemetryState is the latest value of every telemetry field. Nil means no
// reading has arrived yet.
type TelemetryState struct {
	Connected   bool     `json:"connected"`
	Temp        *float64 `json:"temp"`
	Humi        *float64 `json:"humi"`
	Rssid       *string  `json:"rssid"`
	CheckStatus *string  `json:"checkStatus"`
}

func (s TelemetryState) String() string {
	return fmt.Sprintf("connected=%t temp=%s humi=%s rssid=%s status=%s",
		s.Connected, fmtFloat(s.Temp), fmtFloat(s.Humi), fmtString(s.Rssid), fmtString(s.CheckStatus))
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func fmtString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

// StateSink is what the message router and the service write into.
type StateSink interface {
	SetConnected(connected bool)
	SetTemp(v float64)
	SetHumi(v float64)
	SetRssid(v string)
	SetCheckStatus(v string)
}

// StateStore is the process-wide last-value-wins StateSink. Fields are
// independent; no cross-field consistency is kept.
type StateStore struct {
	state *Observable[TelemetryState]
}

func NewStateStore() *StateStore {
	return &StateStore{state: NewObservable(TelemetryState{})}
}

func (s *StateStore) SetConnected(connected bool) {
	s.state.Update(func(st TelemetryState) TelemetryState {
		st.Connected = connected
		return st
	})
}

func (s *StateStore) SetTemp(v float64) {
	s.state.Update(func(st TelemetryState) TelemetryState {
		st.Temp = &v
		return st
	})
}

func (s *StateStore) SetHumi(v float64) {
	s.state.Update(func(st TelemetryState) TelemetryState {
		st.Humi = &v
		return st
	})
}

func (s *StateStore) SetRssid(v string) {
	s.state.Update(func(st TelemetryState) TelemetryState {
		st.Rssid = &v
		return st
	})
}

func (s *StateStore) SetCheckStatus(v string) {
	s.state.Update(func(st TelemetryState) TelemetryState {
		st.CheckStatus = &v
		return st
	})
}

func (s *StateStore) Snapshot() TelemetryState {
	return s.state.Get()
}

func (s *StateStore) Watch() (<-chan TelemetryState, func()) {
	return s.state.Watch()
}

var _ StateSink = &StateStore{}
