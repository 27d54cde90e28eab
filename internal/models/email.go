package models

import (
	"time"
)

// Email is an indexed email document. The primary key is the
// content-derived identity token, so upserting the same logical
// message twice is a no-op.
type Email struct {
	ID      string    `gorm:"primaryKey;size:32" json:"id"`
	Account string    `gorm:"not null;index;size:255" json:"account"`
	Folder  string    `gorm:"not null;index;size:255" json:"folder"`
	From    string    `gorm:"column:from_addr;size:512" json:"from"`
	To      string    `gorm:"column:to_addr;size:1024" json:"to"`
	Subject string    `json:"subject"`
	Snippet string    `gorm:"size:255" json:"snippet"`
	Date    time.Time `gorm:"index" json:"date"`
	Text    string    `json:"text"`
	HTML    string    `json:"html"`
	Label   string    `gorm:"index;size:64" json:"label"`
}

// TableName returns the table name for Email
func (Email) TableName() string {
	return "emails"
}

// Bucket is one aggregation bucket: a distinct field value and the
// number of documents carrying it.
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"doc_count"`
}

// Stats groups the aggregation buckets served by the stats API.
type Stats struct {
	Labels   []Bucket `json:"labels"`
	Accounts []Bucket `json:"accounts"`
	Folders  []Bucket `json:"folders"`
}
