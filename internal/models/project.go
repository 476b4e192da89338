/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Project is a production that owns shooting days.
type Project struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"index" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ShootingDay groups one day's entries, tracks, and settings.
type ShootingDay struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID string    `gorm:"type:uuid;index" json:"project_id"`
	Title     string    `json:"title"`
	Date      string    `gorm:"type:varchar(10)" json:"date"` // "YYYY-MM-DD"
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
