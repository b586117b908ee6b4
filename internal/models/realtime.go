package models

import (
	"strings"
	"time"
)

// Topics a subscriber can register interest in.
const (
	TopicComplaints = "complaints"
	TopicUsers      = "users"
)

// ComplaintTopic is the topic of a single complaint document.
func ComplaintTopic(id string) string { return "complaint:" + id }

// CommentsTopic is the topic of a complaint's comment collection.
func CommentsTopic(id string) string { return "complaint:" + id + ":comments" }

// NotesTopic is the topic of a complaint's admin notes.
func NotesTopic(id string) string { return "complaint:" + id + ":notes" }

// IsAdminTopic reports whether only admins may subscribe to topic.
func IsAdminTopic(topic string) bool {
	return topic == TopicUsers || strings.HasSuffix(topic, ":notes")
}

// ChangeKind describes what happened to the document in a ChangeEvent.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is a snapshot of a changed document delivered to subscribers.
type ChangeEvent struct {
	Topic       string     `json:"topic"`
	Kind        ChangeKind `json:"kind"`
	ComplaintID string     `json:"complaintId,omitempty"`
	Complaint   *Complaint `json:"complaint,omitempty"`
	Comment     *Comment   `json:"comment,omitempty"`
	Note        *AdminNote `json:"note,omitempty"`
	User        *User      `json:"user,omitempty"`
	At          time.Time  `json:"at"`
}

// Matches reports whether a subscriber of topic should receive the event.
// Complaint document changes also roll up to the complaints collection topic.
func (e ChangeEvent) Matches(topic string) bool {
	if e.Topic == topic {
		return true
	}
	return topic == TopicComplaints && e.ComplaintID != "" && e.Topic == ComplaintTopic(e.ComplaintID)
}
