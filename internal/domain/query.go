package domain

import "time"

// QueryResult is the outcome the resolver recorded for a DNS query.
type QueryResult string

const (
	ResultAllowed QueryResult = "A"
	ResultBlocked QueryResult = "B"
	ResultLocal   QueryResult = "L"
)

// QueryEvent is one DNS query observation from the resolver log.
// Events are written by the resolver subsystem and read-only here.
type QueryEvent struct {
	ID            int64       `json:"id"`
	Time          time.Time   `json:"time"`
	SystemID      string      `json:"system"`
	RequestedName string      `json:"request"`
	Result        QueryResult `json:"result"`
}

// DayResultCount is one grouped row of the histogram store query:
// a month-day key, a result kind and how many log rows matched.
type DayResultCount struct {
	Day    string
	Result QueryResult
	Count  int
}

// DailyCount is one point of the 30-day histogram. The day key carries no
// year; it rolls within a 12-month view.
type DailyCount struct {
	Day     string `json:"day"`
	Allowed int    `json:"allowed"`
	Blocked int    `json:"blocked"`
}
