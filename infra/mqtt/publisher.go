package mqtt

import (
	"strconv"
	"time"

	"github.com/kilianp07/haulplan/core/events"
)

// Message is the JSON payload sent for a job event.
type Message struct {
	MessageID string    `json:"message_id"`
	Event     string    `json:"event"`
	JobID     int64     `json:"job_id,omitempty"`
	BoatID    int64     `json:"boat_id,omitempty"`
	Service   string    `json:"service,omitempty"`
	Status    string    `json:"status,omitempty"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Truck     string    `json:"truck,omitempty"`
	Time      time.Time `json:"time"`
}

func newMessage(id string, ev events.JobEvent) Message {
	m := Message{MessageID: id, Event: string(ev.Kind), Truck: ev.TruckName, Time: ev.Time.UTC()}
	if ev.Kind == events.KindHoursUpdated {
		return m
	}
	j := ev.Job
	m.JobID = j.ID
	m.BoatID = j.BoatID
	m.Service = string(j.Service)
	m.Status = string(j.Status)
	if !j.Start.IsZero() {
		m.Start = j.Start.UTC().Format(time.RFC3339)
		m.End = j.End.UTC().Format(time.RFC3339)
	}
	return m
}

// Topics returns the topics an event is published on: one jobs topic per
// involved truck, or the schedule topic of the truck whose hours changed.
func Topics(prefix string, ev events.JobEvent) []string {
	if ev.Kind == events.KindHoursUpdated {
		if ev.TruckName == "" {
			return nil
		}
		return []string{prefix + "/trucks/" + ev.TruckName + "/schedule"}
	}
	var topics []string
	for _, id := range ev.TruckIDs() {
		topics = append(topics, prefix+"/trucks/"+strconv.FormatInt(id, 10)+"/jobs")
	}
	return topics
}
