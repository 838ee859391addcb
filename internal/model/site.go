package model

import "time"

// Study is a clinical study paid for by a program
type Study struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProgramID string    `json:"program"`
	CreatedOn time.Time `json:"created_on"`
}

// Site is a location running one or more studies
type Site struct {
	ID          string    `json:"id"`
	PrimaryName string    `json:"primary_name"`
	UserID      string    `json:"user"`
	AddressID   string    `json:"address,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

// SiteStudy links a site to a study
type SiteStudy struct {
	ID      string `json:"id"`
	SiteID  string `json:"site"`
	StudyID string `json:"study"`
}

// SiteCoordinator pairs a user with a site and the studies they coordinate
type SiteCoordinator struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user"`
	SiteID   string   `json:"site"`
	StudyIDs []string `json:"studies,omitempty"`
}

// CoordinatesStudy reports whether the coordinator is linked to studyID
func (c *SiteCoordinator) CoordinatesStudy(studyID string) bool {
	for _, id := range c.StudyIDs {
		if id == studyID {
			return true
		}
	}
	return false
}

// Cardholder is a study participant holding a payment card
type Cardholder struct {
	ID        string    `json:"id"`
	Firstname string    `json:"first_name"`
	Lastname  string    `json:"last_name"`
	SiteID    string    `json:"site"`
	UserID    string    `json:"user"`
	CreatedOn time.Time `json:"created_on"`
}

// FullName returns "First Last"
func (c *Cardholder) FullName() string {
	return c.Firstname + " " + c.Lastname
}

// Appointment is a scheduled study visit for a cardholder
type Appointment struct {
	ID           string    `json:"id"`
	CardholderID string    `json:"cardholder"`
	StudyID      string    `json:"study"`
	Scheduled    time.Time `json:"scheduled"`
	CreatedBy    string    `json:"created_by"`
	CreatedOn    time.Time `json:"created_on"`
}
