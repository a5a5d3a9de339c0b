// Package model holds the JSON types of the REST API.
package model

import "time"

// JSONSentV1 describes a message handed to the relay.
type JSONSentV1 struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Recipients []string  `json:"recipients"`
	Rejected   []string  `json:"rejected,omitempty"`
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date"`
	Size       int64     `json:"size"`
}
