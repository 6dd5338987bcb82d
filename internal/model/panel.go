package model

import "time"

// Panel is an interview campaign run by one voice agent persona
type Panel struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Interview is one voice conversation belonging to a panel
type Interview struct {
	ID                 string     `json:"id" bson:"_id"`
	PanelID            string     `json:"panel_id" bson:"panel_id"`
	ParticipantName    string     `json:"participant_name,omitempty" bson:"participant_name,omitempty"`
	ParticipantCompany string     `json:"participant_company,omitempty" bson:"participant_company,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
}
